package api

import (
	"net/http"
	"strconv"
	"time"

	"maitred/internal/models"
)

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// actorProfile identifies the staff member acting on behalf of the dashboard
// session. Zero means the integration itself; key permissions gate that.
func actorProfile(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("x-actor-profile"), 10, 64)
	return id
}

func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}

type createBookingRequest struct {
	RestaurantID int64   `json:"restaurant_id" validate:"required"`
	ProfileID    int64   `json:"profile_id"`
	GuestName    string  `json:"guest_name" validate:"required,max=200"`
	GuestPhone   string  `json:"guest_phone" validate:"max=32"`
	StartAt      string  `json:"start_at" validate:"required"`
	PartySize    int     `json:"party_size" validate:"required,min=1,max=100"`
	TurnTime     int     `json:"turn_time_minutes" validate:"min=0,max=600"`
	TableIDs     []int64 `json:"table_ids" validate:"required,min=1"`
	OfferCode    string  `json:"offer_code"`
	Notes        string  `json:"notes" validate:"max=2000"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_at; expected RFC3339")
		return
	}

	booking := &models.Booking{
		RestaurantID:    req.RestaurantID,
		ProfileID:       req.ProfileID,
		GuestName:       req.GuestName,
		GuestPhone:      req.GuestPhone,
		StartAt:         startAt.UTC(),
		PartySize:       req.PartySize,
		TurnTimeMinutes: req.TurnTime,
		OfferCode:       req.OfferCode,
		Notes:           req.Notes,
	}

	if err := s.bookings.CreateBooking(r.Context(), booking, req.TableIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := strconv.ParseInt(r.URL.Query().Get("restaurant_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "restaurant_id is required")
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to := from.AddDate(0, 0, 1)
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
			return
		}
		to = t.AddDate(0, 0, 1)
	}

	bookings, err := s.bookings.GetBookingsByDateRange(r.Context(), restaurantID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleSearchBookings(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := strconv.ParseInt(r.URL.Query().Get("restaurant_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "restaurant_id is required")
		return
	}
	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bookings, err := s.bookings.SearchBookings(r.Context(), restaurantID, term, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleBookingHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	history, err := s.bookings.GetStatusHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// handleBookingTransitions reports where a booking may move next, with labels
// and progress, so the dashboard renders only legal actions.
func (s *HTTPServer) handleBookingTransitions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	type transition struct {
		Status   string `json:"status"`
		Label    string `json:"label"`
		Progress int    `json:"progress"`
	}
	var next []transition
	for _, status := range models.NextStatuses(booking.Status) {
		next = append(next, transition{
			Status:   status,
			Label:    models.StatusLabel(status),
			Progress: models.StatusProgress(status),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            booking.Status,
		"label":             models.StatusLabel(booking.Status),
		"progress":          models.StatusProgress(booking.Status),
		"terminal":          models.IsTerminal(booking.Status),
		"remaining_minutes": models.EstimateRemainingMinutes(booking.Status, booking.TurnTimeMinutes),
		"next":              next,
	})
}

type transitionRequest struct {
	Status  string `json:"status" validate:"required"`
	Version int64  `json:"version" validate:"required,min=1"`
}

func (s *HTTPServer) handleTransitionBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req transitionRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changedBy := "api"
	if actor := actorProfile(r); actor != 0 {
		changedBy = "staff:" + strconv.FormatInt(actor, 10)
	}

	if err := s.bookings.TransitionBooking(r.Context(), id, req.Version, req.Status, changedBy); err != nil {
		writeServiceError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type reassignRequest struct {
	TableIDs []int64 `json:"table_ids" validate:"required,min=1"`
	Version  int64   `json:"version" validate:"required,min=1"`
}

func (s *HTTPServer) handleReassignTables(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req reassignRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changedBy := "api"
	if actor := actorProfile(r); actor != 0 {
		changedBy = "staff:" + strconv.FormatInt(actor, 10)
	}

	if err := s.bookings.ReassignTables(r.Context(), id, req.Version, req.TableIDs, changedBy); err != nil {
		writeServiceError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
