package api

import (
	"net/http"
	"strconv"

	"maitred/internal/models"

	"github.com/shopspring/decimal"
)

func (s *HTTPServer) handleListCategories(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	categories, err := s.menu.GetCategories(r.Context(), restaurantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

type categoryRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	SortOrder int64  `json:"sort_order"`
}

func (s *HTTPServer) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	var req categoryRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category := &models.MenuCategory{
		RestaurantID: restaurantID,
		Name:         req.Name,
		SortOrder:    req.SortOrder,
	}
	if err := s.menu.CreateCategory(r.Context(), actorProfile(r), category); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *HTTPServer) handleListMenuItems(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}
	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64)

	items, err := s.menu.GetItems(r.Context(), restaurantID, categoryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type menuItemRequest struct {
	CategoryID  int64  `json:"category_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Price       string `json:"price" validate:"required"`
	IsAvailable *bool  `json:"is_available"`
	SortOrder   int64  `json:"sort_order"`
}

func (s *HTTPServer) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := pathID(r, "rid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	var req menuItemRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}

	item := &models.MenuItem{
		RestaurantID: restaurantID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        price,
		IsAvailable:  true,
		SortOrder:    req.SortOrder,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.menu.CreateItem(r.Context(), actorProfile(r), item); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	existing, err := s.menu.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req menuItemRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}

	item := &models.MenuItem{
		ID:           id,
		RestaurantID: existing.RestaurantID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        price,
		IsAvailable:  existing.IsAvailable,
		SortOrder:    req.SortOrder,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.menu.UpdateItem(r.Context(), actorProfile(r), item); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type itemAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

func (s *HTTPServer) handleMenuItemAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemAvailabilityRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.menu.SetItemAvailability(r.Context(), actorProfile(r), id, *req.Available); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "available": *req.Available})
}

func (s *HTTPServer) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.menu.DeleteItem(r.Context(), actorProfile(r), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
