package http

import (
	"log/slog"
	"net/http"

	"carteira/internal/core"
	"carteira/internal/store"
)

// --- dashboard ---

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	key := string(month)
	if d, ok := s.dashboardCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "month", month)
		writeJSON(w, http.StatusOK, d)
		return
	}

	d := s.tracker.MonthDashboard(month)
	s.dashboardCache.Set(key, d)
	writeJSON(w, http.StatusOK, d)
}

// --- categories ---

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.tracker.CreateCategory(r.Context(), core.Category{
		Name:  sanitize(req.Name),
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- variable items ---

type variableItemRequest struct {
	Title       string `json:"title"`
	Estimated   string `json:"estimated"`
	Direction   string `json:"direction"`
	CategoryID  string `json:"categoryId"`
	Description string `json:"description"`
	Month       string `json:"month"`
}

type variableItemUpdateRequest struct {
	Title       *string `json:"title"`
	Estimated   *string `json:"estimated"`
	CategoryID  *string `json:"categoryId"`
	Description *string `json:"description"`
}

type completeRequest struct {
	Actual string `json:"actual"`
}

func (s *Server) handleListVariableItems(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	direction, err := directionParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.VariableItems(month, direction))
}

func (s *Server) handleCreateVariableItem(w http.ResponseWriter, r *http.Request) {
	var req variableItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	estimated, err := parseAmount(req.Estimated)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.tracker.CreateVariableItem(r.Context(), core.VariableItem{
		Title:       sanitize(req.Title),
		Estimated:   estimated,
		Direction:   core.Direction(req.Direction),
		CategoryID:  req.CategoryID,
		Description: sanitize(req.Description),
		Month:       month,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateVariableItem(w http.ResponseWriter, r *http.Request) {
	var req variableItemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch store.VariablePatch
	if req.Title != nil {
		title := sanitize(*req.Title)
		patch.Title = &title
	}
	if req.Estimated != nil {
		estimated, err := parseAmount(*req.Estimated)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		patch.Estimated = &estimated
	}
	patch.CategoryID = req.CategoryID
	if req.Description != nil {
		desc := sanitize(*req.Description)
		patch.Description = &desc
	}

	updated, err := s.tracker.UpdateVariableItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteVariableItem(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.RemoveVariableItem(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteVariableItem(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actual, err := parseAmount(req.Actual)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	done, err := s.tracker.CompleteVariableItem(r.Context(), r.PathValue("id"), actual)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, done)
}
