package http

import (
	"fmt"
	"net/http"

	"kakeibo/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validPeriod(year, month) {
		errorJSON(w, http.StatusBadRequest, "invalid year/month")
		return
	}

	txs, err := s.ledger.ListMonth(r.Context(), userID, year, month)
	if err != nil {
		storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := readJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.transactionFromRequest(userID, "", req)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.ledger.Create(r.Context(), t)
	if err != nil {
		storageError(w, err)
		return
	}

	s.invalidateReports(userID, created.Date)
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")

	var req transactionRequest
	if err := readJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.transactionFromRequest(userID, id, req)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.ledger.Update(r.Context(), t)
	if err != nil {
		storageError(w, err)
		return
	}

	s.invalidateReports(userID, updated.Date)
	writeJSON(w, http.StatusOK, toTransactionDTO(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")

	if err := s.ledger.Delete(r.Context(), userID, id); err != nil {
		storageError(w, err)
		return
	}

	// The deleted row's date is gone; drop the whole report cache entry set
	// lazily by TTL instead of tracking it.
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) transactionFromRequest(userID, id string, req transactionRequest) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", req.Date)
	}
	return core.Transaction{
		ID:         id,
		UserID:     userID,
		Date:       date,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Type:       core.TransactionType(req.Type),
		CategoryID: req.CategoryID,
	}, nil
}

// invalidateReports drops cached monthly reports touching the written date.
func (s *Server) invalidateReports(userID string, date core.Date) {
	for _, currency := range append([]string{core.AllBase}, core.Currencies...) {
		s.reportCache.Delete(reportCacheKey(userID, date.Year(), date.Month(), currency))
	}
}
