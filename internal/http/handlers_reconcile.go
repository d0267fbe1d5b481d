package http

import (
	"net/http"

	"carteira/internal/core"
)

type generateRequest struct {
	Month string `json:"month"`
}

type generateResponse struct {
	ItemID        string        `json:"itemId"`
	Month         core.MonthKey `json:"month"`
	TransactionID string        `json:"transactionId"`
}

type batchResponse struct {
	Month core.MonthKey `json:"month"`
	Count int           `json:"count"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	id := r.PathValue("id")
	txID, err := s.tracker.Generate(r.Context(), id, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, generateResponse{
		ItemID:        id,
		Month:         month,
		TransactionID: txID,
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.tracker.Undo(r.Context(), r.PathValue("id"), month); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReconcileMonth(w http.ResponseWriter, r *http.Request) {
	month, err := monthPath(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	count, err := s.tracker.ReconcileMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, batchResponse{Month: month, Count: count})
}

func (s *Server) handleClearMonth(w http.ResponseWriter, r *http.Request) {
	month, err := monthPath(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	count, err := s.tracker.ClearMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, batchResponse{Month: month, Count: count})
}
