package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	kafka "github.com/segmentio/kafka-go"

	"hub-order-sync/internal/models"
)

const DefaultTopic = "order-sync-journal"

type Config struct {
	Brokers []string
	Topic   string
	// WriteTimeout bounds a single journal write so a slow broker cannot
	// hold up the request that produced the event.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes sync journal events to Kafka, keyed by order id so all
// events for one order stay on one partition.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &Publisher{writer: w, timeout: cfg.WriteTimeout}, nil
}

func (p *Publisher) Publish(ctx context.Context, ev models.Event) error {
	msg, err := Message(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write %s event", ev.Type)
	}
	return nil
}

// Message builds the Kafka message for ev.
func Message(ev models.Event) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode event")
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: value,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "node", Value: []byte(ev.Node)},
		},
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
