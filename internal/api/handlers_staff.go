package api

import (
	"net/http"

	"maitred/internal/models"
)

func (s *HTTPServer) handleListStaff(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	staff, err := s.staff.ListStaff(r.Context(), restaurantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
}

type staffRequest struct {
	ProfileID   int64    `json:"profile_id" validate:"required"`
	ChatID      int64    `json:"chat_id"`
	Role        string   `json:"role" validate:"required,oneof=manager host server"`
	Permissions []string `json:"permissions"`
	IsActive    *bool    `json:"is_active"`
}

func (s *HTTPServer) handleAddStaff(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	var req staffRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	member := &models.StaffMember{
		RestaurantID: restaurantID,
		ProfileID:    req.ProfileID,
		ChatID:       req.ChatID,
		Role:         req.Role,
		Permissions:  req.Permissions,
		IsActive:     true,
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}

	if err := s.staff.AddStaff(r.Context(), actorProfile(r), member); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (s *HTTPServer) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	existing, err := s.staff.GetStaff(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req staffRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	member := &models.StaffMember{
		ID:           id,
		RestaurantID: existing.RestaurantID,
		ProfileID:    req.ProfileID,
		ChatID:       req.ChatID,
		Role:         req.Role,
		Permissions:  req.Permissions,
		IsActive:     existing.IsActive,
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}

	if err := s.staff.UpdateStaff(r.Context(), actorProfile(r), member); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *HTTPServer) handleRemoveStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	if err := s.staff.RemoveStaff(r.Context(), actorProfile(r), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *HTTPServer) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	prefs, err := s.staff.GetPreferences(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

type preferenceRequest struct {
	EventType string `json:"event_type" validate:"required,oneof=booking_requested status_changed booking_cancelled"`
	Enabled   *bool  `json:"enabled" validate:"required"`
}

func (s *HTTPServer) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	var req preferenceRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.staff.SetPreference(r.Context(), id, req.EventType, *req.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"staff_id":   id,
		"event_type": req.EventType,
		"enabled":    *req.Enabled,
	})
}
