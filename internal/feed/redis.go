// Package feed carries row-level change events from the write path to the
// sync hub: a redis pub/sub feed for multi-process deployments, an
// in-process bus feed for single binaries and tests, and an outbox relay
// that decouples booking writes from feed publishing.
package feed

import (
	"context"
	"encoding/json"
	"sync"

	"deskhive/internal/metrics"
	"deskhive/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func channelFor(table string) string {
	return models.FeedChannelPrefix + table
}

// RedisFeed implements domain.ChangeFeed over a redis pub/sub channel per
// table.
type RedisFeed struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisFeed(client *redis.Client, logger *zerolog.Logger) *RedisFeed {
	return &RedisFeed{client: client, logger: logger}
}

// Publish pushes a change event onto the table's channel.
func (f *RedisFeed) Publish(ctx context.Context, table string, event models.ChangeEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, channelFor(table), raw).Err()
}

// Subscribe opens a pub/sub subscription and pumps decoded events into the
// handler from a dedicated goroutine. The returned function closes the
// subscription; undecodable payloads are logged and skipped.
func (f *RedisFeed) Subscribe(ctx context.Context, table string, handler func(models.ChangeEvent)) (func(), error) {
	sub := f.client.Subscribe(ctx, channelFor(table))

	// Force the subscription handshake so a dead redis fails here, not
	// silently in the pump goroutine.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					f.logger.Warn().Err(err).Str("channel", m.Channel).Msg("dropping undecodable feed event")
					continue
				}
				metrics.IncFeedEvent(event.Op)
				handler(event)
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			_ = sub.Close()
			<-done
		})
	}
	return unsubscribe, nil
}
