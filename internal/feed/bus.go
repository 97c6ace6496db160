package feed

import (
	"context"
	"encoding/json"

	"deskhive/internal/events"
	"deskhive/internal/metrics"
	"deskhive/internal/models"

	"github.com/rs/zerolog"
)

// BusFeed adapts the in-process event bus to the change-feed boundary for
// single-process deployments and tests. Publish and delivery happen on the
// caller's goroutine.
type BusFeed struct {
	bus    *events.EventBus
	logger *zerolog.Logger
}

func NewBusFeed(bus *events.EventBus, logger *zerolog.Logger) *BusFeed {
	return &BusFeed{bus: bus, logger: logger}
}

func busEventType(table string) string {
	return "change:" + table
}

func (f *BusFeed) Publish(ctx context.Context, table string, event models.ChangeEvent) error {
	return f.bus.PublishJSON(busEventType(table), event)
}

func (f *BusFeed) Subscribe(ctx context.Context, table string, handler func(models.ChangeEvent)) (func(), error) {
	unsubscribe := f.bus.Subscribe(busEventType(table), func(ev *events.Event) error {
		var change models.ChangeEvent
		if err := json.Unmarshal(ev.Payload, &change); err != nil {
			f.logger.Warn().Err(err).Str("table", table).Msg("dropping undecodable feed event")
			return err
		}
		metrics.IncFeedEvent(change.Op)
		handler(change)
		return nil
	})
	return unsubscribe, nil
}
