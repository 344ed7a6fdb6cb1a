package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/logger"
)

const (
	dispatchWorkers   = 4
	dispatchQueueSize = 256
	dispatchTimeout   = 10 * time.Second
)

// Dispatcher fans notification delivery out to a worker pool so callers never
// block on the broker. Send errors are logged and dropped.
type Dispatcher struct {
	notifier Notifier
	pool     pond.Pool
}

// NewDispatcher wraps a Notifier with an asynchronous delivery pool
func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		pool: pond.NewPool(
			dispatchWorkers,
			pond.WithQueueSize(dispatchQueueSize),
		),
	}
}

// Notify stages a message and schedules its delivery. It returns immediately;
// failures surface only in the logs.
func (d *Dispatcher) Notify(to, cc []domain.DID, subject, body string) {
	id, err := d.notifier.CreateMessage(to, cc, subject, body)
	if err != nil {
		logger.Error(fmt.Errorf("failed to create notification: %w", err), zap.String("subject", subject))
		return
	}

	d.pool.SubmitErr(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := d.notifier.Send(ctx, id); err != nil {
			logger.Error(fmt.Errorf("failed to send notification: %w", err),
				zap.String("message_id", id),
				zap.String("subject", subject))
			return err
		}
		return nil
	})
}

// Close waits for in-flight deliveries to finish, then closes the underlying
// notifier if it holds a connection
func (d *Dispatcher) Close() {
	d.pool.StopAndWait()
	if c, ok := d.notifier.(interface{ Close() }); ok {
		c.Close()
	}
}
