package http

import (
	"net/http"

	"carteira/internal/core"
	"carteira/internal/store"
)

type fixedItemRequest struct {
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Direction   string `json:"direction"`
	CategoryID  string `json:"categoryId"`
	Description string `json:"description"`
	PeriodDay   int    `json:"periodDay"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type fixedItemUpdateRequest struct {
	Title       *string `json:"title"`
	Amount      *string `json:"amount"`
	CategoryID  *string `json:"categoryId"`
	Description *string `json:"description"`
	PeriodDay   *int    `json:"periodDay"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
}

type fixedItemStatusResponse struct {
	ItemID    string        `json:"itemId"`
	Month     core.MonthKey `json:"month"`
	Status    core.Status   `json:"status"`
	Remaining *int          `json:"remaining"`
}

func (s *Server) handleListFixedItems(w http.ResponseWriter, r *http.Request) {
	direction, err := directionParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.FixedItems(direction))
}

func (s *Server) handleCreateFixedItem(w http.ResponseWriter, r *http.Request) {
	var req fixedItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := fixedItemFromRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.tracker.CreateFixedItem(r.Context(), item)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetFixedItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.tracker.FixedItem(r.PathValue("id"))
	if !ok {
		writeDomainError(w, core.ErrItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateFixedItem(w http.ResponseWriter, r *http.Request) {
	var req fixedItemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := patchFromRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := s.tracker.UpdateFixedItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteFixedItem(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.RemoveFixedItem(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleFixedItem(w http.ResponseWriter, r *http.Request) {
	toggled, err := s.tracker.ToggleFixedItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, toggled)
}

func (s *Server) handleFixedItemStatus(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	id := r.PathValue("id")
	status, remaining, err := s.tracker.FixedItemStatus(id, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fixedItemStatusResponse{
		ItemID:    id,
		Month:     month,
		Status:    status,
		Remaining: remaining,
	})
}

func fixedItemFromRequest(req fixedItemRequest) (core.FixedItem, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.FixedItem{}, err
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return core.FixedItem{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return core.FixedItem{}, err
	}

	return core.FixedItem{
		Title:       sanitize(req.Title),
		Amount:      amount,
		Direction:   core.Direction(req.Direction),
		CategoryID:  req.CategoryID,
		Description: sanitize(req.Description),
		PeriodDay:   req.PeriodDay,
		StartDate:   startDate,
		EndDate:     endDate,
	}, nil
}

func patchFromRequest(req fixedItemUpdateRequest) (store.FixedItemPatch, error) {
	var patch store.FixedItemPatch

	if req.Title != nil {
		title := sanitize(*req.Title)
		patch.Title = &title
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			return store.FixedItemPatch{}, err
		}
		patch.Amount = &amount
	}
	patch.CategoryID = req.CategoryID
	if req.Description != nil {
		desc := sanitize(*req.Description)
		patch.Description = &desc
	}
	patch.PeriodDay = req.PeriodDay
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			return store.FixedItemPatch{}, err
		}
		patch.StartDate = &startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			return store.FixedItemPatch{}, err
		}
		patch.EndDate = &endDate
	}

	return patch, nil
}
