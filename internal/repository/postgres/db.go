package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Config struct {
	URL      string
	Host     string
	Port     string
	Username string
	Password string
	DbName   string
	SslMode  string
}

func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.DbName, c.Password, c.SslMode)
}

func ConnectDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.DB().Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *gorm.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	if err := goose.UpContext(ctx, db.DB(), "migrations"); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}
