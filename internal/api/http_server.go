package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/metrics"
	"maitred/internal/reports"
	"maitred/internal/service"
	"maitred/internal/ws"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the dashboard REST API.
type HTTPServer struct {
	cfg       config.APIConfig
	bookings  *service.BookingService
	tables    *service.TableService
	menu      *service.MenuService
	staff     *service.StaffService
	guests    *service.GuestService
	analytics *service.AnalyticsService
	exporter  *reports.Exporter
	validate  *validator.Validate
	logger    *zerolog.Logger
	server    *http.Server
	auth      *HTTPAuth
}

type Services struct {
	Bookings  *service.BookingService
	Tables    *service.TableService
	Menu      *service.MenuService
	Staff     *service.StaffService
	Guests    *service.GuestService
	Analytics *service.AnalyticsService
	Exporter  *reports.Exporter
	Hub       *ws.Hub
}

func NewHTTPServer(cfg config.APIConfig, svcs Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		bookings:  svcs.Bookings,
		tables:    svcs.Tables,
		menu:      svcs.Menu,
		staff:     svcs.Staff,
		guests:    svcs.Guests,
		analytics: svcs.Analytics,
		exporter:  svcs.Exporter,
		validate:  validator.New(),
		logger:    logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)

	mux.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("GET /api/v1/bookings/search", srv.handleSearchBookings)
	mux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleGetBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}/history", srv.handleBookingHistory)
	mux.HandleFunc("GET /api/v1/bookings/{id}/transitions", srv.handleBookingTransitions)
	mux.HandleFunc("POST /api/v1/bookings/{id}/status", srv.handleTransitionBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/tables", srv.handleReassignTables)

	mux.HandleFunc("GET /api/v1/restaurants/{rid}/availability", srv.handleAvailability)
	mux.HandleFunc("GET /api/v1/restaurants/{rid}/availability/day", srv.handleDayGrid)
	mux.HandleFunc("GET /api/v1/restaurants/{rid}/occupancy", srv.handleOccupancy)
	mux.HandleFunc("GET /api/v1/restaurants/{rid}/utilization", srv.handleUtilization)

	mux.HandleFunc("GET /api/v1/restaurants/{rid}/tables", srv.handleListTables)
	mux.HandleFunc("POST /api/v1/restaurants/{rid}/tables", srv.handleCreateTable)
	mux.HandleFunc("PUT /api/v1/restaurants/{rid}/tables/{id}", srv.handleUpdateTable)
	mux.HandleFunc("DELETE /api/v1/restaurants/{rid}/tables/{id}", srv.handleDeactivateTable)

	mux.HandleFunc("GET /api/v1/restaurants/{rid}/menu/categories", srv.handleListCategories)
	mux.HandleFunc("POST /api/v1/restaurants/{rid}/menu/categories", srv.handleCreateCategory)
	mux.HandleFunc("GET /api/v1/restaurants/{rid}/menu/items", srv.handleListMenuItems)
	mux.HandleFunc("POST /api/v1/restaurants/{rid}/menu/items", srv.handleCreateMenuItem)
	mux.HandleFunc("PUT /api/v1/menu/items/{id}", srv.handleUpdateMenuItem)
	mux.HandleFunc("POST /api/v1/menu/items/{id}/availability", srv.handleMenuItemAvailability)
	mux.HandleFunc("DELETE /api/v1/menu/items/{id}", srv.handleDeleteMenuItem)

	mux.HandleFunc("GET /api/v1/restaurants/{rid}/staff", srv.handleListStaff)
	mux.HandleFunc("POST /api/v1/restaurants/{rid}/staff", srv.handleAddStaff)
	mux.HandleFunc("PUT /api/v1/staff/{id}", srv.handleUpdateStaff)
	mux.HandleFunc("DELETE /api/v1/staff/{id}", srv.handleRemoveStaff)
	mux.HandleFunc("GET /api/v1/staff/{id}/preferences", srv.handleGetPreferences)
	mux.HandleFunc("PUT /api/v1/staff/{id}/preferences", srv.handleSetPreference)

	mux.HandleFunc("GET /api/v1/profiles/search", srv.handleSearchProfiles)
	mux.HandleFunc("GET /api/v1/profiles/{id}", srv.handleGetProfile)
	mux.HandleFunc("POST /api/v1/profiles", srv.handleCreateProfile)
	mux.HandleFunc("POST /api/v1/restaurants/{rid}/vip", srv.handleGrantVIP)
	mux.HandleFunc("DELETE /api/v1/restaurants/{rid}/vip/{profileID}", srv.handleRevokeVIP)
	mux.HandleFunc("GET /api/v1/restaurants/{rid}/vip/{profileID}", srv.handleVIPStatus)

	mux.HandleFunc("GET /api/v1/restaurants/{rid}/analytics", srv.handleAnalytics)
	mux.HandleFunc("POST /api/v1/restaurants/{rid}/reports/schedule", srv.handleExportSchedule)

	if svcs.Hub != nil {
		mux.HandleFunc("GET /api/v1/restaurants/{rid}/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(svcs.Hub, logger, w, r)
		})
	}

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the assembled handler, for tests and the websocket mount.
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

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("x-request-id", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
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

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar),
		errors.Is(err, database.ErrNoTables):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}
