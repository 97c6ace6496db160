package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deskhive/internal/api"
	"deskhive/internal/availability"
	"deskhive/internal/config"
	"deskhive/internal/database"
	"deskhive/internal/domain"
	"deskhive/internal/events"
	"deskhive/internal/export"
	"deskhive/internal/feed"
	"deskhive/internal/hub"
	"deskhive/internal/logging"
	"deskhive/internal/metrics"
	"deskhive/internal/payment"
	"deskhive/internal/repository"
	"deskhive/internal/service"
	"deskhive/internal/worker"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := logging.Component(baseLogger, "api-main")

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	resultCache, changeFeed, outbox, startRelay := initRedisStack(cfg, baseLogger)
	if startRelay != nil {
		go startRelay(ctx)
	}

	checkerLog := logging.Component(baseLogger, "availability")
	checker := availability.NewChecker(db, &checkerLog)
	availCache := availability.NewCache(checker, resultCache, cfg.Booking.AvailabilityCacheTTL, &checkerLog)

	paymentLog := logging.Component(baseLogger, "payment")
	var payments domain.PaymentProvider
	if cfg.Payment.BaseURL != "" {
		payments = payment.NewClient(cfg.Payment, &paymentLog)
	}

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, baseLogger)

	serviceLog := logging.Component(baseLogger, "booking-service")
	bookingService := service.NewBookingService(
		db, db, checker, eventBus, outbox, payments, availCache,
		cfg.Booking.MaxBookingDays, &serviceLog,
	)

	hubLog := logging.Component(baseLogger, "sync-hub")
	hubs := hub.NewPool(db, changeFeed, &hubLog, hub.WithIdleTimeout(cfg.Booking.HubIdleTimeout))
	hubs.Start(ctx)
	defer hubs.Stop()

	exportLog := logging.Component(baseLogger, "export")
	exporter := export.NewExporter(db, &exportLog)

	apiLog := logging.Component(baseLogger, "http-api")
	server := api.NewHTTPServer(
		cfg.API, db, bookingService, availCache, hubs, exporter,
		cfg.Monitoring.PrometheusEnabled, &apiLog,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func initDatabase(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) (*database.DB, error) {
	dbLog := logging.Component(baseLogger, "database")
	db, err := database.NewDB(cfg.Database.Path, &dbLog)
	if err != nil {
		return nil, err
	}
	if err := db.SeedSpaces(ctx, cfg.Spaces); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initRedisStack wires the redis-backed pieces when redis is enabled:
// shared availability cache with in-memory failover, the pub/sub change
// feed, and the outbox relay. Without redis everything degrades to
// in-process equivalents.
func initRedisStack(cfg *config.Config, baseLogger *zerolog.Logger) (domain.ResultCache, domain.ChangeFeed, domain.FeedOutbox, func(context.Context)) {
	cacheLog := logging.Component(baseLogger, "cache")
	feedLog := logging.Component(baseLogger, "feed")

	if !cfg.Redis.Enabled {
		bus := events.NewEventBus()
		busFeed := feed.NewBusFeed(bus, &feedLog)
		return repository.NewMemoryCache(), busFeed, feed.NewDirectOutbox(busFeed), nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	resultCache := repository.NewFailoverCache(
		repository.NewRedisCache(client),
		repository.NewMemoryCache(),
		&cacheLog,
	)

	redisFeed := feed.NewRedisFeed(client, &feedLog)
	outbox := feed.NewOutbox(client)
	relay := feed.NewRelay(client, redisFeed, worker.RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	}, &feedLog)

	return resultCache, redisFeed, outbox, relay.Start
}

// subscribeBookingEvents hooks the in-process domain events to logging so an
// operator can follow the lifecycle without tailing the database.
func subscribeBookingEvents(bus *events.EventBus, baseLogger *zerolog.Logger) {
	eventLog := logging.Component(baseLogger, "events")
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
	} {
		et := eventType
		bus.Subscribe(et, func(ev *events.Event) error {
			eventLog.Info().Str("event_type", et).RawJSON("payload", ev.Payload).Msg("booking event")
			return nil
		})
	}
}
