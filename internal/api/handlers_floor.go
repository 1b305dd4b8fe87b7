package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"maitred/internal/models"
)

// handleAvailability checks specific tables or lists free ones for a start
// time. With table_ids it returns per-table verdicts; without, the free
// tables sorted for the party size.
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	q := r.URL.Query()
	startAt, err := time.Parse(time.RFC3339, q.Get("start_at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_at; expected RFC3339")
		return
	}
	turnTime, _ := strconv.Atoi(q.Get("turn_time_minutes"))
	partySize, _ := strconv.Atoi(q.Get("party_size"))

	if raw := q.Get("table_ids"); raw != "" {
		tableIDs, err := parseIDList(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid table_ids")
			return
		}
		available, verdicts, err := s.tables.CheckTables(r.Context(), restaurantID, tableIDs, startAt.UTC(), turnTime)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"available": available,
			"tables":    verdicts,
		})
		return
	}

	free, err := s.tables.AvailableTables(r.Context(), restaurantID, startAt.UTC(), turnTime, partySize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": free})
}

func (s *HTTPServer) handleDayGrid(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	day, err := s.tables.DayGrid(r.Context(), restaurantID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *HTTPServer) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	at := time.Now().UTC()
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at; expected RFC3339")
			return
		}
		at = t.UTC()
	}

	floor, err := s.tables.Occupancy(r.Context(), restaurantID, at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"at":     at,
		"tables": floor,
	})
}

func (s *HTTPServer) handleUtilization(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	ratio, err := s.tables.Utilization(r.Context(), restaurantID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":        date.Format("2006-01-02"),
		"utilization": ratio,
	})
}

func (s *HTTPServer) handleListTables(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	tables, err := s.tables.ListTables(r.Context(), restaurantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

type tableRequest struct {
	Number    int    `json:"number" validate:"required,min=1"`
	Capacity  int    `json:"capacity" validate:"required,min=1,max=100"`
	Section   string `json:"section" validate:"max=100"`
	SortOrder int64  `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

func (s *HTTPServer) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	var req tableRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table := &models.Table{
		RestaurantID: restaurantID,
		Number:       req.Number,
		Capacity:     req.Capacity,
		Section:      req.Section,
		SortOrder:    req.SortOrder,
		IsActive:     true,
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}
	if table.SortOrder == 0 {
		table.SortOrder = int64(table.Number)
	}

	if err := s.tables.CreateTable(r.Context(), actorProfile(r), table); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (s *HTTPServer) handleUpdateTable(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}
	tableID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid table id")
		return
	}

	var req tableRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table := &models.Table{
		ID:           tableID,
		RestaurantID: restaurantID,
		Number:       req.Number,
		Capacity:     req.Capacity,
		Section:      req.Section,
		SortOrder:    req.SortOrder,
		IsActive:     true,
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}

	if err := s.tables.UpdateTable(r.Context(), actorProfile(r), table); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *HTTPServer) handleDeactivateTable(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}
	tableID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid table id")
		return
	}

	if err := s.tables.DeactivateTable(r.Context(), actorProfile(r), restaurantID, tableID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
