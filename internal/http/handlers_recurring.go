package http

import (
	"fmt"
	"net/http"
	"time"

	"kakeibo/internal/core"
)

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request, userID string) {
	rules, err := s.rules.ListRulesByUser(r.Context(), userID)
	if err != nil {
		storageError(w, err)
		return
	}

	out := make([]ruleDTO, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleDTO(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request, userID string) {
	var req ruleRequest
	if err := readJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := ruleFromRequest(userID, "", req)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.rules.CreateRule(r.Context(), rule)
	if err != nil {
		storageError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRuleDTO(created))
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")

	var req ruleRequest
	if err := readJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := ruleFromRequest(userID, id, req)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.rules.UpdateRule(r.Context(), rule)
	if err != nil {
		storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRuleDTO(updated))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.rules.DeleteRule(r.Context(), userID, r.PathValue("id")); err != nil {
		storageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := readJSON(w, r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.rules.SetRuleActive(r.Context(), userID, id, req.IsActive); err != nil {
		storageError(w, err)
		return
	}

	rule, err := s.rules.GetRule(r.Context(), userID, id)
	if err != nil {
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

func ruleFromRequest(userID, id string, req ruleRequest) (core.RecurringRule, error) {
	// An omitted start date means the rule starts today.
	start := core.Today(time.Now())
	if req.StartDate != "" {
		var err error
		start, err = core.ParseDate(req.StartDate)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", req.StartDate)
		}
	}

	rule := core.RecurringRule{
		ID:         id,
		UserID:     userID,
		Type:       core.TransactionType(req.Type),
		Amount:     req.Amount,
		Currency:   req.Currency,
		CategoryID: req.CategoryID,
		Cycle:      core.Cycle(req.Cycle),
		DayOfMonth: req.DayOfMonth,
		DayOfWeek:  req.DayOfWeek,
		StartDate:  start,
		IsActive:   true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.EndDate != nil && *req.EndDate != "" {
		end, err := core.ParseDate(*req.EndDate)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", *req.EndDate)
		}
		rule.EndDate = end
	}

	return rule, nil
}
