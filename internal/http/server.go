package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	"kakeibo/internal/middleware/trace"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
)

// RuleStore is the recurring-rule persistence the handlers need.
type RuleStore interface {
	CreateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error)
	UpdateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error)
	DeleteRule(ctx context.Context, userID, id string) error
	SetRuleActive(ctx context.Context, userID, id string, active bool) error
	GetRule(ctx context.Context, userID, id string) (core.RecurringRule, error)
	ListRulesByUser(ctx context.Context, userID string) ([]core.RecurringRule, error)
}

// CategoryStore is the category persistence the handlers need.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	RenameCategory(ctx context.Context, userID, id, name string) error
	DeactivateCategory(ctx context.Context, userID, id string) error
	RestoreCategory(ctx context.Context, userID, id string) error
	ListCategories(ctx context.Context, userID string, activeOnly bool) ([]core.Category, error)
}

// RateStore serves the raw rate listing endpoint.
type RateStore interface {
	ListRatesByCurrency(ctx context.Context, target string, start, end core.Date) ([]core.ExchangeRate, error)
}

// Deps collects the server's collaborators.
type Deps struct {
	Ledger     *services.LedgerService
	Reports    *services.ReportService
	Applier    *services.RecurringApplier
	Account    *services.AccountService
	Rules      RuleStore
	Categories CategoryStore
	Rates      RateStore
	Sessions   *session.Holder
}

type Server struct {
	http.Server

	ledger     *services.LedgerService
	reports    *services.ReportService
	applier    *services.RecurringApplier
	account    *services.AccountService
	rules      RuleStore
	categories CategoryStore
	rates      RateStore
	sessions   *session.Holder

	rateLimiter *rateLimiter

	// Monthly reports are the hot read path; cached per (user, period, tab)
	// and invalidated on ledger writes touching the period.
	reportCache *cache.LRUCache[monthlyReportDTO]

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		ledger:       deps.Ledger,
		reports:      deps.Reports,
		applier:      deps.Applier,
		account:      deps.Account,
		rules:        deps.Rules,
		categories:   deps.Categories,
		rates:        deps.Rates,
		sessions:     deps.Sessions,
		rateLimiter:  newRateLimiter(),
		reportCache:  cache.NewLRUCache[monthlyReportDTO](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /api/session", s.handleSession)

	// Scheduler-invoked; the job spans all owners, so no owner resolution.
	mux.HandleFunc("POST /api/jobs/apply-recurring", s.handleApplyRecurring)

	mux.HandleFunc("POST /api/account", s.withOwner(s.handleCreateAccount))

	mux.HandleFunc("GET /api/transactions", s.withOwner(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withOwner(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withOwner(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withOwner(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.withOwner(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withOwner(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withOwner(s.handleRenameCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withOwner(s.handleDeactivateCategory))
	mux.HandleFunc("POST /api/categories/{id}/restore", s.withOwner(s.handleRestoreCategory))

	mux.HandleFunc("GET /api/recurring", s.withOwner(s.handleListRules))
	mux.HandleFunc("POST /api/recurring", s.withOwner(s.handleCreateRule))
	mux.HandleFunc("PUT /api/recurring/{id}", s.withOwner(s.handleUpdateRule))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withOwner(s.handleDeleteRule))
	mux.HandleFunc("POST /api/recurring/{id}/toggle", s.withOwner(s.handleToggleRule))

	mux.HandleFunc("GET /api/reports/monthly", s.withOwner(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/reports/yearly", s.withOwner(s.handleYearlyReport))

	mux.HandleFunc("GET /api/rates", s.handleListRates)

	tracer := trace.NewMiddleware(trace.ExtractClientIP)
	s.Handler = tracer.Middleware(mux)

	return s
}

// withOwner resolves the acting user and applies common request policy.
// The user comes from the X-User-ID header; when absent, the session
// holder's current state fills in. Auth proper lives upstream.
func (s *Server) withOwner(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.rateLimiter.allow(trace.ExtractClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			errorJSON(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		userID := r.Header.Get("X-User-ID")
		if userID == "" && s.sessions != nil {
			if st, ok := s.sessions.Current(); ok {
				userID = st.UserID
			}
		}
		if userID == "" {
			errorJSON(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}

		next(w, r, userID)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		errorJSON(w, http.StatusNotFound, "session tracking disabled")
		return
	}
	st, ok := s.sessions.Current()
	if !ok {
		errorJSON(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
