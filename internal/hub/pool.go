package hub

import (
	"context"
	"sync"

	"deskhive/internal/domain"

	"github.com/rs/zerolog"
)

// Pool hands out one hub per user, created on demand, so concurrently
// connected users never share state: an observer attached for one user can
// only ever receive that user's bookings. Each hub keeps its own idle
// teardown for the upstream subscription; the hub structs themselves live
// until Stop.
type Pool struct {
	reader domain.StoreReader
	feed   domain.ChangeFeed
	logger *zerolog.Logger
	opts   []Option

	mu     sync.Mutex
	hubs   map[int64]*Hub
	ctx    context.Context
	cancel context.CancelFunc
}

func NewPool(reader domain.StoreReader, feed domain.ChangeFeed, logger *zerolog.Logger, opts ...Option) *Pool {
	return &Pool{
		reader: reader,
		feed:   feed,
		logger: logger,
		opts:   opts,
		hubs:   make(map[int64]*Hub),
	}
}

// Start fixes the lifecycle context inherited by every hub the pool creates.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx, p.cancel = context.WithCancel(ctx)
}

// Stop tears down every hub the pool created.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	hubs := make([]*Hub, 0, len(p.hubs))
	for _, h := range p.hubs {
		hubs = append(hubs, h)
	}
	p.hubs = make(map[int64]*Hub)
	p.mu.Unlock()

	for _, h := range hubs {
		h.Stop()
	}
}

// ForUser returns the hub scoped to userID, creating and starting it on
// first use.
func (p *Pool) ForUser(userID int64) *Hub {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.hubs[userID]; ok {
		return h
	}

	ctx := p.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	h := New(p.reader, p.feed, p.logger, p.opts...)
	h.Start(ctx)
	h.SetUser(userID)
	p.hubs[userID] = h
	return h
}
