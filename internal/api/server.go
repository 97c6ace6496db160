package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"deskhive/internal/config"
	"deskhive/internal/domain"
	"deskhive/internal/export"
	"deskhive/internal/hub"
	"deskhive/internal/models"
	"deskhive/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// availabilityPort is the memoized availability surface the handlers
// consume.
type availabilityPort interface {
	GetOrCompute(ctx context.Context, date time.Time, spaceID int64, durationHours int) models.AvailabilityResult
}

// HTTPServer is the thin glue exposing the engine. The engine itself stays
// an in-process library; everything here is translation and policy
// (auth, rate limits, serialization).
type HTTPServer struct {
	cfg      config.APIConfig
	reader   domain.StoreReader
	bookings *service.BookingService
	avail    availabilityPort
	hubs     *hub.Pool
	exporter *export.Exporter
	logger   *zerolog.Logger
	server   *http.Server
	auth     *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	reader domain.StoreReader,
	bookings *service.BookingService,
	avail availabilityPort,
	hubs *hub.Pool,
	exporter *export.Exporter,
	metricsEnabled bool,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		reader:   reader,
		bookings: bookings,
		avail:    avail,
		hubs:     hubs,
		exporter: exporter,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg.Auth)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/spaces", srv.handleSpaces)
	mux.HandleFunc("/api/v1/spaces/", srv.handleSpaceSubresource)
	mux.HandleFunc("/api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingSubresource)
	mux.HandleFunc("/api/v1/payments/webhook", srv.handlePaymentWebhook)
	mux.HandleFunc("/api/v1/export", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)
	if metricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	limiter := newRateLimiter(cfg.RateLimit)
	handler := loggingMiddleware(logger, srv.auth.Wrap(rateLimitMiddleware(limiter, mux)))

	// No WriteTimeout: the SSE stream is indefinite. Per-write deadlines in
	// the middleware and the stream loop bound slow clients instead.
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
