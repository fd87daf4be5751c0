package performances

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/neon-karaoke/backend/internal/models"
)

const (
	changeChannel  = "performances:changed"
	publishTimeout = 5 * time.Second
)

// Snapshot is the complete current ordered performance set. Subscribers get
// the whole set on every delivery, never a diff.
type Snapshot []models.Performance

// Source is a standing live query over the performance collection. Each event
// carries the full ordered record set; cancelling the context releases the
// subscription.
type Source interface {
	Subscribe(ctx context.Context) (<-chan Snapshot, error)
}

// Lister loads the full ordered performance set.
type Lister interface {
	List(ctx context.Context) ([]models.Performance, error)
}

// Feed implements Source over Redis pub/sub: writers publish a change signal
// after every insert or reaction, subscribers re-query the full ordered set
// per signal. The initial snapshot is delivered on subscribe.
type Feed struct {
	client *redis.Client
	lister Lister
	logger *zap.Logger
}

// NewFeed creates a performance change feed.
func NewFeed(client *redis.Client, lister Lister, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{client: client, lister: lister, logger: logger}
}

// Publish signals that the performance collection changed.
func (f *Feed) Publish(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := f.client.Publish(ctx, changeChannel, "1").Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe registers a live query. The returned channel first carries the
// current snapshot, then one snapshot per batch of changes, and is closed
// when ctx is cancelled.
func (f *Feed) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	pubsub := f.client.Subscribe(ctx, changeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		deliver := func() {
			list, err := f.lister.List(ctx)
			if err != nil {
				f.logger.Warn("snapshot query failed", zap.Error(err))
				return
			}
			select {
			case out <- Snapshot(list):
			case <-ctx.Done():
			}
		}

		deliver()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()
	return out, nil
}
