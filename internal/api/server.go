package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"prebook/internal/config"
	"prebook/internal/export"
	"prebook/internal/service"
)

// HTTPServer exposes the customer-facing calendar and the admin API.
type HTTPServer struct {
	cfg          config.APIConfig
	availability *service.AvailabilityService
	bookings     *service.BookingService
	blocks       *service.BlockService
	exporter     *export.Exporter
	server       *http.Server
	auth         *HTTPAuth
	logger       *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	availabilitySv *service.AvailabilityService,
	bookingSv *service.BookingService,
	blockSv *service.BlockService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:          cfg,
		availability: availabilitySv,
		bookings:     bookingSv,
		blocks:       blockSv,
		exporter:     exporter,
		logger:       logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/v1/slots/month", srv.handleSlotsMonth)
	mux.HandleFunc("/api/v1/slots", srv.handleSlots)
	mux.HandleFunc("/api/v1/bookings", srv.handleCustomerBooking)

	mux.HandleFunc("/api/v1/admin/bookings", srv.handleAdminBookings)
	mux.HandleFunc("/api/v1/admin/bookings/", srv.handleAdminBookingStatus)
	mux.HandleFunc("/api/v1/admin/blocks", srv.handleAdminBlocks)
	mux.HandleFunc("/api/v1/admin/blocks/bulk", srv.handleAdminBlocksBulk)
	mux.HandleFunc("/api/v1/admin/blocks/", srv.handleAdminBlockDelete)
	mux.HandleFunc("/api/v1/admin/export", srv.handleAdminExport)

	handler := loggingMiddleware(logger)(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler chain.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
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
