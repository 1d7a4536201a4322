package edge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	WebServer *http.Server
	logger    zerolog.Logger
}

// NewServer wires the API routes behind request ids and metrics, with
// health and metrics endpoints outside the instrumented mux.
func NewServer(conf *config.Config, router *Router, health *HealthHandler, rec metrics.Recorder, logger zerolog.Logger) *Server {
	apiMux := http.NewServeMux()
	for _, route := range router.Routes() {
		apiMux.Handle(route.URL, CORS(conf.Server.AllowOrigin, route.Handler))
	}
	instrumentedAPI := metrics.Middleware(rec, RequestID(logger, apiMux))

	mux := http.NewServeMux()
	mux.Handle("/health", health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", rec.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &Server{
		WebServer: &http.Server{
			Addr:         net.JoinHostPort(conf.Server.Host, strconv.Itoa(conf.Server.Port)),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: conf.AI.Timeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.WebServer.Addr).Msg("listening for HTTP clients")
		if err := s.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.WebServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	s.logger.Info().Msg("gracefully stopped")
	return nil
}
