package http

import (
	"net/http"

	"carteira/internal/core"
	"carteira/internal/store"
)

type transactionRequest struct {
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Direction   string `json:"direction"`
	CategoryID  string `json:"categoryId"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type transactionUpdateRequest struct {
	Title       *string `json:"title"`
	Amount      *string `json:"amount"`
	CategoryID  *string `json:"categoryId"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Transactions())
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	created, err := s.tracker.CreateTransaction(r.Context(), core.LedgerTransaction{
		Title:       sanitize(req.Title),
		Amount:      amount,
		Direction:   core.Direction(req.Direction),
		CategoryID:  req.CategoryID,
		Date:        date,
		Description: sanitize(req.Description),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch store.TransactionPatch
	if req.Title != nil {
		title := sanitize(*req.Title)
		patch.Title = &title
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		patch.Amount = &amount
	}
	patch.CategoryID = req.CategoryID
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		patch.Date = &date
	}
	if req.Description != nil {
		desc := sanitize(*req.Description)
		patch.Description = &desc
	}

	updated, err := s.tracker.UpdateTransaction(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	removed, err := s.tracker.DeleteTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
