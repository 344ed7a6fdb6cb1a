package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/logger"
)

// NATSConfig holds the connection settings for the notification broker
type NATSConfig struct {
	URL            string
	Subject        string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type natsNotifier struct {
	nc      *nats.Conn
	subject string
	staged  *pending
}

// NewNATS connects to the broker and returns a Notifier that publishes
// messages as JSON on the configured subject.
func NewNATS(cfg NATSConfig) (Notifier, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &natsNotifier{
		nc:      nc,
		subject: cfg.Subject,
		staged:  newPending(),
	}, nil
}

func (n *natsNotifier) CreateMessage(to, cc []domain.DID, subject, body string) (string, error) {
	msg := newMessage(to, cc, subject, body)
	n.staged.add(msg)
	return msg.ID, nil
}

func (n *natsNotifier) Send(ctx context.Context, id string) error {
	msg, err := n.staged.take(id)
	if err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", id, err)
	}

	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish message %s: %w", id, err)
	}

	return nil
}

// Close drains the connection, flushing any buffered publishes
func (n *natsNotifier) Close() {
	if n.nc != nil {
		_ = n.nc.Drain()
	}
}
