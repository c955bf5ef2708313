package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"helmsman/internal/calendar"
	"helmsman/internal/config"
	"helmsman/internal/domain"
	"helmsman/internal/metrics"
)

// Exporter produces downloadable schedule workbooks.
type Exporter interface {
	MonthlySchedule(ctx context.Context, captainID string, ym calendar.YearMonth) ([]byte, error)
}

// HTTPServer exposes the scheduling engine over a JSON API.
type HTTPServer struct {
	cfg          config.APIConfig
	availability domain.AvailabilityProvider
	reservations domain.ReservationManager
	weather      domain.WeatherCoordinator
	exporter     Exporter
	auth         *HTTPAuth
	logger       *zerolog.Logger
	server       *http.Server
}

func NewHTTPServer(cfg config.APIConfig, availability domain.AvailabilityProvider, reservations domain.ReservationManager, weather domain.WeatherCoordinator, exporter Exporter, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		availability: availability,
		reservations: reservations,
		weather:      weather,
		exporter:     exporter,
		auth:         NewHTTPAuth(cfg),
		logger:       logger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

// Handler builds the full middleware chain; exported for httptest.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/offerings/{id}/availability", s.handleGetAvailability)
	mux.HandleFunc("POST /api/v1/reservations", s.handleCreateReservation)
	mux.HandleFunc("GET /api/v1/reservations/{id}", s.handleGetReservation)
	mux.HandleFunc("POST /api/v1/reservations/{id}/transition", s.handleTransition)
	mux.HandleFunc("POST /api/v1/reservations/{id}/weather-hold", s.handlePlaceWeatherHold)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}/weather-hold", s.handleRemoveWeatherHold)
	mux.HandleFunc("POST /api/v1/reservations/{id}/offers/{offerID}/select", s.handleSelectOffer)
	mux.HandleFunc("GET /api/v1/captains/{id}/schedule.xlsx", s.handleExportSchedule)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.loggingMiddleware(s.auth.Wrap(mux))
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

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		// Паттерн роутера, а не сырой путь: иначе кардинальность взорвётся
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = r.Method + " unmatched"
		}
		metrics.IncHTTP(endpoint)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
