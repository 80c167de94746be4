package http

import (
	"net/http"
	"strings"

	"kakeibo/internal/core"
)

// handleCreateAccount is the explicit account-creation step: it seeds the
// default categories for the acting user. Reads never seed; a client calls
// this once when the account is established.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	if s.account == nil {
		errorJSON(w, http.StatusNotFound, "account creation disabled")
		return
	}
	if err := s.account.Bootstrap(r.Context(), userID); err != nil {
		storageError(w, err)
		return
	}

	cats, err := s.categories.ListCategories(r.Context(), userID, true)
	if err != nil {
		storageError(w, err)
		return
	}

	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	cats, err := s.categories.ListCategories(r.Context(), userID, activeOnly)
	if err != nil {
		storageError(w, err)
		return
	}

	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID string) {
	var req categoryRequest
	if err := readJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	c := core.Category{
		UserID:   userID,
		Name:     sanitizeInput(req.Name),
		Type:     core.TransactionType(req.Type),
		IsActive: true,
	}
	if err := c.Validate(); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.categories.CreateCategory(r.Context(), c)
	if err != nil {
		storageError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryDTO(created))
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")

	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	name := sanitizeInput(req.Name)
	if strings.TrimSpace(name) == "" {
		errorJSON(w, http.StatusBadRequest, core.ErrEmptyName.Error())
		return
	}

	if err := s.categories.RenameCategory(r.Context(), userID, id, name); err != nil {
		storageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeactivateCategory(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.categories.DeactivateCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		storageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreCategory(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.categories.RestoreCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		storageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
