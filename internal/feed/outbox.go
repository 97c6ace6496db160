package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"deskhive/internal/models"
	"deskhive/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher is the downstream the relay pushes events to.
type Publisher interface {
	Publish(ctx context.Context, table string, event models.ChangeEvent) error
}

// outboxEntry is what gets queued on the redis list.
type outboxEntry struct {
	Table string             `json:"table"`
	Event models.ChangeEvent `json:"event"`
}

// Outbox queues change events produced by booking writes onto a redis list
// so the write path never blocks on feed delivery. A Relay drains the list.
type Outbox struct {
	client   *redis.Client
	queueKey string
}

func NewOutbox(client *redis.Client) *Outbox {
	return &Outbox{client: client, queueKey: models.FeedQueueKey}
}

func (o *Outbox) EnqueueChange(ctx context.Context, table string, event models.ChangeEvent) error {
	if event.Op == "" {
		return errors.New("change event op is required")
	}
	if event.RowID() == 0 {
		return errors.New("change event row id is required")
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	raw, err := json.Marshal(outboxEntry{Table: table, Event: event})
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}

	if err := o.client.LPush(ctx, o.queueKey, raw).Err(); err != nil {
		return fmt.Errorf("enqueue change event: %w", err)
	}
	return nil
}

// DirectOutbox publishes synchronously instead of queueing, for
// deployments without redis where the bus feed delivers in-process.
type DirectOutbox struct {
	publisher Publisher
}

func NewDirectOutbox(publisher Publisher) *DirectOutbox {
	return &DirectOutbox{publisher: publisher}
}

func (d *DirectOutbox) EnqueueChange(ctx context.Context, table string, event models.ChangeEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	return d.publisher.Publish(ctx, table, event)
}

// Relay drains the outbox and publishes each entry with bounded retries.
// Entries that exhaust their retries move to the dead-letter list instead of
// blocking the queue.
type Relay struct {
	client        *redis.Client
	publisher     Publisher
	retryPolicy   worker.RetryPolicy
	queueKey      string
	deadLetterKey string
	pollInterval  time.Duration
	logger        *zerolog.Logger
}

func NewRelay(client *redis.Client, publisher Publisher, retry worker.RetryPolicy, logger *zerolog.Logger) *Relay {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 500 * time.Millisecond
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &Relay{
		client:        client,
		publisher:     publisher,
		retryPolicy:   retry,
		queueKey:      models.FeedQueueKey,
		deadLetterKey: models.FeedDeadLetterKey,
		pollInterval:  time.Second,
		logger:        logger,
	}
}

// Start blocks draining the outbox until the context is cancelled.
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info().Str("queue", r.queueKey).Msg("feed relay started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("feed relay stopped")
			return
		default:
		}

		raw, err := r.client.BRPop(ctx, r.pollInterval, r.queueKey).Result()
		if err == redis.Nil || len(raw) < 2 {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error().Err(err).Msg("outbox pop failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.pollInterval):
			}
			continue
		}

		r.process(ctx, raw[1])
	}
}

func (r *Relay) process(ctx context.Context, payload string) {
	var entry outboxEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		r.logger.Error().Err(err).Msg("undecodable outbox entry, dead-lettering")
		r.deadLetter(ctx, payload)
		return
	}

	err := r.retryPolicy.Do(ctx, func() error {
		return r.publisher.Publish(ctx, entry.Table, entry.Event)
	})
	if err != nil {
		r.logger.Error().Err(err).
			Str("op", entry.Event.Op).
			Int64("row_id", entry.Event.RowID()).
			Msg("publish failed after retries, dead-lettering")
		r.deadLetter(ctx, payload)
		return
	}

	r.logger.Debug().
		Str("op", entry.Event.Op).
		Int64("row_id", entry.Event.RowID()).
		Msg("change event relayed")
}

func (r *Relay) deadLetter(ctx context.Context, payload string) {
	if err := r.client.LPush(ctx, r.deadLetterKey, payload).Err(); err != nil {
		r.logger.Error().Err(err).Msg("dead-letter push failed, event lost")
	}
}
