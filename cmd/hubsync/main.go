package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/auth"
	"hub-order-sync/internal/configs"
	httpdelivery "hub-order-sync/internal/delivery/http"
	"hub-order-sync/internal/delivery/kafka"
	"hub-order-sync/internal/metrics"
	"hub-order-sync/internal/repository"
	"hub-order-sync/internal/repository/cache"
	"hub-order-sync/internal/repository/memory"
	"hub-order-sync/internal/repository/postgres"
	"hub-order-sync/internal/repository/redis"
	"hub-order-sync/internal/service"
	"hub-order-sync/internal/syncclient"
)

// @title order sync node
// @version 1.0
// @description Signed two-peer order synchronization between a store and a hub. Receives orders, status changes and notes from the peer, pushes local changes back, and serves the orders to dashboards.

// @host localhost:8081
// @basePath /

func main() {
	_ = godotenv.Load()
	cfg, err := configs.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("config load: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}
	setupLogging(cfg)
	logrus.WithField("node", cfg.NodeName).Print("config parsed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	kv := cache.NewCache(cache.WithTTL(cfg.CacheTTL))
	defer kv.Close()
	repo := repository.NewRepository(store, kv)

	nonces, closeNonces := openNonceStore(ctx, cfg)
	defer closeNonces()

	m := metrics.New(prometheus.DefaultRegisterer)

	peer := syncclient.New(syncclient.Config{
		PeerURL: cfg.PeerURL,
		APIKey:  cfg.APIKey,
		Secret:  cfg.SecretKey,
		Timeout: cfg.SyncTimeout,
	}, syncclient.WithMetrics(m))
	if peer.Configured() {
		logrus.WithField("peer", peer.PeerURL()).Print("outbound sync enabled")
	} else {
		logrus.Warn("PEER_URL is empty, outbound sync disabled")
	}

	opts := []service.Option{
		service.WithNodeName(cfg.NodeName),
		service.WithPeerLabel(cfg.PeerLabel),
	}
	if brokers := cfg.KafkaBrokersSlice(); len(brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.Config{Brokers: brokers, Topic: cfg.KafkaTopic})
		if err != nil {
			logrus.Fatalf("kafka publisher: %s", err)
		}
		defer func() {
			if cerr := pub.Close(); cerr != nil {
				logrus.Errorf("kafka close: %v", cerr)
			}
		}()
		opts = append(opts, service.WithJournal(pub))
		logrus.WithField("topic", cfg.KafkaTopic).Print("sync journal enabled")
	}
	svc := service.NewService(repo, peer, opts...)

	authCfg := auth.Config{
		APIKey:  cfg.APIKey,
		Secret:  cfg.SecretKey,
		Window:  cfg.ReplayWindow,
		MaxSkew: cfg.MaxClockSkew,
	}
	hcfg := httpdelivery.Config{
		PublicURL: cfg.PublicURL,
		Peer:      auth.NewAuthenticator(authCfg, nonces),
		Metrics:   m,
	}
	if cfg.AdminEnabled() {
		authCfg.APIKey, authCfg.Secret = cfg.AdminAPIKey, cfg.AdminSecretKey
		hcfg.Admin = auth.NewAuthenticator(authCfg, nonces)
	} else {
		logrus.Warn("ADMIN_API_KEY is empty, admin API disabled")
	}

	h := httpdelivery.NewHandler(svc, hcfg)
	srv := new(httpdelivery.Server)

	go func() {
		if err := srv.Run(cfg.HTTPAddr, h.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("http run: %v", err)
			cancel()
		}
	}()
	logrus.Printf("http server started on %s", cfg.HTTPAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logrus.Print("shutdown signal received")
	case <-ctx.Done():
		logrus.Print("context canceled, shutting down")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("http shutdown: %s", err)
	}
	logrus.Print("service stopped")
}

func setupLogging(cfg configs.Config) {
	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func openStore(ctx context.Context, cfg configs.Config) (repository.OrderStore, func()) {
	if cfg.StoreDriver == configs.StoreDriverMemory {
		logrus.Warn("using in-memory order store, data is lost on restart")
		return memory.NewStore(), func() {}
	}

	db, err := postgres.ConnectDB(cfg.Postgres())
	if err != nil {
		logrus.Fatalf("postgres connect: %s", err)
	}
	logrus.Print("connected to postgres")

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logrus.Fatalf("postgres migrate: %s", err)
		}
		logrus.Print("migrations applied")
	}
	return postgres.NewOrderPostgres(db), func() {
		if derr := db.Close(); derr != nil {
			logrus.Errorf("db close: %v", derr)
		}
	}
}

// openNonceStore prefers Redis so replicas of one node share seen nonces.
func openNonceStore(ctx context.Context, cfg configs.Config) (auth.NonceStore, func()) {
	rcfg := cfg.Redis()
	if !rcfg.Enabled() {
		sc := cache.NewShardedCache(cache.WithShardTTL(cfg.ReplayWindow + cfg.MaxClockSkew))
		return cache.NewNonceCache(sc), sc.Close
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rs, err := redis.Connect(pingCtx, rcfg, cfg.NodeName)
	if err != nil {
		logrus.Fatalf("redis connect: %s", err)
	}
	logrus.Print("nonce cache on redis")
	return rs, func() {
		if cerr := rs.Close(); cerr != nil {
			logrus.Errorf("redis close: %v", cerr)
		}
	}
}
