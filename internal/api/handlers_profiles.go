package api

import (
	"net/http"
	"strconv"
	"time"

	"maitred/internal/models"
)

func (s *HTTPServer) handleSearchProfiles(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	profiles, err := s.guests.SearchProfiles(r.Context(), term, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	profile, err := s.guests.GetProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"max=32"`
	Email string `json:"email" validate:"omitempty,email"`
	Notes string `json:"notes" validate:"max=2000"`
}

// handleCreateProfile resolves by phone first, so posting the same guest
// twice returns the existing record instead of a duplicate.
func (s *HTTPServer) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := s.guests.FindOrCreateProfile(r.Context(), req.Name, req.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Email != "" || req.Notes != "" {
		profile.Email = req.Email
		profile.Notes = req.Notes
		if err := s.guests.UpdateProfile(r.Context(), profile); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, profile)
}

type vipGrantRequest struct {
	ProfileID       int64  `json:"profile_id" validate:"required"`
	ExtraWindowDays int    `json:"extra_window_days" validate:"required,min=1,max=365"`
	ExpiresAt       string `json:"expires_at" validate:"required"`
}

func (s *HTTPServer) handleGrantVIP(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	var req vipGrantRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expires_at; expected RFC3339")
		return
	}

	grant := &models.VIPGrant{
		ProfileID:       req.ProfileID,
		RestaurantID:    restaurantID,
		ExtraWindowDays: req.ExtraWindowDays,
		ExpiresAt:       expiresAt.UTC(),
	}
	if err := s.guests.GrantVIP(r.Context(), actorProfile(r), grant); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, grant)
}

func (s *HTTPServer) handleRevokeVIP(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}
	profileID, err := pathID(r, "profileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	if err := s.guests.RevokeVIP(r.Context(), actorProfile(r), profileID, restaurantID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (s *HTTPServer) handleVIPStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}
	profileID, err := pathID(r, "profileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	grant, active, err := s.guests.GetVIPStatus(r.Context(), profileID, restaurantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vip":   active,
		"grant": grant,
	})
}
