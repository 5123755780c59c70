// internal/adapter/events/publisher.go

package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"trendboard/internal/config"
)

// Conn is the subset of a NATS connection the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher publishes pipeline events as JSON under the configured topic
type Publisher struct {
	conn   Conn
	topic  string
	logger *zap.Logger
}

// NewPublisher creates a new NATS event publisher
func NewPublisher(conn Conn, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		topic:  topic,
		logger: logger.Named("events"),
	}
}

// Subject returns the fully qualified subject for an event
func (p *Publisher) Subject(subject string) string {
	if p.topic == "" {
		return subject
	}
	return fmt.Sprintf("%s.%s", p.topic, subject)
}

// Publish serializes payload and publishes it
func (p *Publisher) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding event %s: %w", subject, err)
	}

	full := p.Subject(subject)
	if err := p.conn.Publish(full, data); err != nil {
		return fmt.Errorf("error publishing event %s: %w", full, err)
	}

	p.logger.Debug("event published", zap.String("subject", full), zap.Int("bytes", len(data)))
	return nil
}

// Nop discards every event. Used when NATS is not configured.
type Nop struct{}

// Publish does nothing
func (Nop) Publish(string, interface{}) error { return nil }

// Connect opens a NATS connection with reconnect handling
func Connect(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	logger = logger.Named("nats")

	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
