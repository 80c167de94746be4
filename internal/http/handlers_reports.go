package http

import (
	"fmt"
	"net/http"
	"strings"

	"kakeibo/internal/core"
)

func reportCacheKey(userID string, year, month int, currency string) string {
	return fmt.Sprintf("%s|%04d-%02d|%s", userID, year, month, currency)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request, userID string) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validPeriod(year, month) {
		errorJSON(w, http.StatusBadRequest, "invalid year/month")
		return
	}

	currency := strings.TrimSpace(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = core.AllBase
	}

	key := reportCacheKey(userID, year, month, currency)
	if cached, ok := s.reportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	rep, err := s.reports.Monthly(r.Context(), userID, year, month, currency)
	if err != nil {
		storageError(w, err)
		return
	}

	dto := toMonthlyReportDTO(year, month, rep)
	s.reportCache.Set(key, dto)
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request, userID string) {
	year, _, err := parseYearMonth(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if year < 1970 || year > 9999 {
		errorJSON(w, http.StatusBadRequest, "invalid year")
		return
	}

	rep, err := s.reports.Yearly(r.Context(), userID, year)
	if err != nil {
		storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toYearlyReportDTO(rep))
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	currency := strings.TrimSpace(q.Get("currency"))
	if currency == "" || !core.KnownCurrency(currency) {
		errorJSON(w, http.StatusBadRequest, "unknown currency")
		return
	}

	start, err := core.ParseDate(q.Get("start"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid start: expected YYYY-MM-DD")
		return
	}
	end, err := core.ParseDate(q.Get("end"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid end: expected YYYY-MM-DD")
		return
	}
	if end.Before(start.Time) {
		errorJSON(w, http.StatusBadRequest, "end before start")
		return
	}

	rates, err := s.rates.ListRatesByCurrency(r.Context(), currency, start, end)
	if err != nil {
		storageError(w, err)
		return
	}

	out := make([]rateDTO, 0, len(rates))
	for _, rate := range rates {
		out = append(out, toRateDTO(rate))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApplyRecurring(w http.ResponseWriter, r *http.Request) {
	result, err := s.applier.Run(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
