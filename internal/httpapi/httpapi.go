// Package httpapi exposes the assistant over HTTP: a chat endpoint backed
// by the dispatcher, direct report endpoints for dashboard use, and the
// usual health, metrics, and auth plumbing.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/dispatcher"
	"lisearch/backend/internal/domain"
	"lisearch/backend/internal/metrics"
	"lisearch/backend/internal/service"
)

type contextKey string

const actorKey contextKey = "actor"

type API struct {
	svc          *service.Service
	dispatcher   *dispatcher.Dispatcher
	auth         *AuthManager
	log          zerolog.Logger
	allowed      string
	loginLimiter *attemptLimiter
}

func New(svc *service.Service, disp *dispatcher.Dispatcher, auth *AuthManager, allowedOrigin string, log zerolog.Logger) *API {
	return &API{
		svc:          svc,
		dispatcher:   disp,
		auth:         auth,
		log:          log,
		allowed:      allowedOrigin,
		loginLimiter: newAttemptLimiter(5, time.Minute),
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.allowed},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Post("/chat", a.handleChat)
			r.Get("/catalog", a.handleCatalog)
			r.Get("/categories", a.handleCategories)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/top-selling", a.handleTopSelling)
				r.Get("/trending", a.handleTrending)
				r.Get("/search", a.handleSearch)
				r.Get("/low-stock", a.handleLowStock)
				r.Get("/category-summary", a.handleCategorySummary)
				r.Get("/product", a.handleProductDetails)
				r.Get("/transactions", a.handleRecentTransactions)
			})
		})
	})

	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			a.writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		actor, err := a.auth.ParseToken(strings.TrimSpace(token))
		if err != nil {
			a.writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		a.writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.auth.Login(req)
	if err != nil {
		a.writeError(w, http.StatusUnauthorized, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{"operations": catalog.Operations()})
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	names, err := a.svc.ListCategories(r.Context())
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"categories": names})
}

// reportResponse is the common shape of the direct report endpoints.
type reportResponse struct {
	Rows     any      `json:"rows"`
	RowCount int      `json:"row_count"`
	Warnings []string `json:"warnings,omitempty"`
}

func (a *API) handleTopSelling(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.respondError(w, err)
		return
	}
	days, err := queryInt(r, "days")
	if err != nil {
		a.respondError(w, err)
		return
	}
	params := domain.TopSellingParams{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Days:     days,
	}
	rows, warnings, err := a.svc.TopSellingProducts(r.Context(), params)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reportResponse{Rows: rows, RowCount: len(rows), Warnings: warnings})
}

func (a *API) handleTrending(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		a.respondError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.respondError(w, err)
		return
	}
	rows, warnings, err := a.svc.TrendingProducts(r.Context(), domain.TrendingParams{Days: days, Limit: limit})
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reportResponse{Rows: rows, RowCount: len(rows), Warnings: warnings})
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	rows, warnings, err := a.svc.SearchProductsByDescription(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reportResponse{Rows: rows, RowCount: len(rows), Warnings: warnings})
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.respondError(w, err)
		return
	}
	rows, warnings, err := a.svc.LowStockProducts(r.Context(), limit)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reportResponse{Rows: rows, RowCount: len(rows), Warnings: warnings})
}

func (a *API) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		a.respondError(w, err)
		return
	}
	rows, warnings, err := a.svc.SalesSummaryByCategory(r.Context(), days)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reportResponse{Rows: rows, RowCount: len(rows), Warnings: warnings})
}

func (a *API) handleProductDetails(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}
	row, warnings, err := a.svc.ProductDetails(r.Context(), domain.ProductDetailsParams{
		ProductID:   int64(id),
		ProductName: r.URL.Query().Get("name"),
	})
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reportResponse{Rows: row, RowCount: 1, Warnings: warnings})
}

func (a *API) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.respondError(w, err)
		return
	}
	rows, warnings, err := a.svc.RecentTransactions(r.Context(), limit)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, reportResponse{Rows: rows, RowCount: len(rows), Warnings: warnings})
}

// queryInt parses an optional positive integer query parameter. Absent
// means zero, which the service replaces with the operation default.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	if v <= 0 {
		return 0, domain.NewValidationError(name, "must be positive")
	}
	return v, nil
}

// respondError maps the domain error taxonomy onto HTTP statuses.
func (a *API) respondError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		a.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrNotFound):
		a.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrUnavailable):
		a.writeError(w, http.StatusServiceUnavailable, err)
	default:
		a.writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// writeError returns the original message for 4xx responses. 5xx bodies are
// generic so internal details (SQL text, upstream URLs) never leak.
func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		a.log.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
	}
	if status == http.StatusServiceUnavailable {
		a.log.Warn().Err(err).Msg("upstream unavailable")
		msg = "service temporarily unavailable, please retry"
	}
	a.writeJSON(w, status, map[string]any{"error": msg})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func clientKey(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

type attemptLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	entries   map[string][]time.Time
	lastSweep time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time), lastSweep: time.Now()}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Drop keys for clients that went idle, otherwise the map grows one
	// entry per distinct address for the process lifetime.
	if now.Sub(l.lastSweep) > l.window {
		for k, history := range l.entries {
			recent := false
			for _, ts := range history {
				if ts.After(cutoff) {
					recent = true
					break
				}
			}
			if !recent {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}
