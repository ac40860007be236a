// Package http exposes the JSON API for clients, events, payments and
// the reconciliation dashboard.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"parcelas/internal/cache"
	"parcelas/internal/core"
	"parcelas/internal/idgen"
	"parcelas/internal/middleware/trace"
	"parcelas/internal/services"
	"parcelas/internal/store"
)

// Store bundles the read/write ports the API serves.
type Store interface {
	store.ClientStore
	store.EventStore
	store.PaymentReader
}

type Server struct {
	http.Server
	store       Store
	service     *services.PaymentService
	ids         idgen.Generator
	rateLimiter *rateLimiter

	// Dashboard caches. Short TTL; mutations additionally invalidate
	// the keys they can name.
	summaryCache  *cache.LRUCache[core.Summary]
	upcomingCache *cache.LRUCache[[]core.Payment]
	cacheManager  *cache.Manager

	toleranceCents int64
	shutdownOnce   sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, st Store, service *services.PaymentService, ids idgen.Generator, toleranceCents int64) *Server {
	if ids == nil {
		ids = idgen.UUID{}
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		store:          st,
		service:        service,
		ids:            ids,
		rateLimiter:    newRateLimiter(),
		summaryCache:   cache.NewLRUCache[core.Summary](100, 30*time.Second),
		upcomingCache:  cache.NewLRUCache[[]core.Payment](100, 30*time.Second),
		cacheManager:   cache.NewManager(),
		toleranceCents: toleranceCents,
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.upcomingCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	tracer := trace.NewMiddleware(clientIP)
	wrap := func(h http.HandlerFunc) http.Handler {
		return tracer.Middleware(s.withSecurity(h))
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.Handle("GET /api/clients", wrap(s.handleListClients))
	mux.Handle("POST /api/clients", wrap(s.handleCreateClient))
	mux.Handle("PATCH /api/clients/{id}", wrap(s.handleUpdateClient))
	mux.Handle("DELETE /api/clients/{id}", wrap(s.handleDeleteClient))

	mux.Handle("GET /api/events", wrap(s.handleListEvents))
	mux.Handle("POST /api/events", wrap(s.handleCreateEvent))
	mux.Handle("GET /api/events/{id}", wrap(s.handleGetEvent))
	mux.Handle("PATCH /api/events/{id}", wrap(s.handleUpdateEvent))
	mux.Handle("DELETE /api/events/{id}", wrap(s.handleDeleteEvent))
	mux.Handle("GET /api/events/{id}/payments", wrap(s.handleListEventPayments))
	mux.Handle("POST /api/events/{id}/installments", wrap(s.handleCommitInstallments))

	mux.Handle("POST /api/installments/preview", wrap(s.handlePreviewInstallments))

	mux.Handle("GET /api/payments", wrap(s.handleListPayments))
	mux.Handle("POST /api/payments", wrap(s.handleCreatePayment))
	mux.Handle("GET /api/payments/{id}", wrap(s.handleGetPayment))
	mux.Handle("PATCH /api/payments/{id}", wrap(s.handleUpdatePayment))
	mux.Handle("DELETE /api/payments/{id}", wrap(s.handleDeletePayment))

	mux.Handle("GET /api/dashboard/summary", wrap(s.handleDashboardSummary))
	mux.Handle("GET /api/dashboard/upcoming", wrap(s.handleDashboardUpcoming))

	return s
}

// clientIP extracts the caller address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// withSecurity adds security headers and rate limiting for mutations.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func summaryKey(owner string, year, month int) string {
	return owner + "|" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// invalidateDashboards drops the cached views a mutation may have
// changed. Entries it cannot name expire via TTL.
func (s *Server) invalidateDashboards(owner string, due core.Date) {
	now := time.Now()
	s.summaryCache.Delete(summaryKey(owner, now.Year(), int(now.Month())))
	if !due.IsZero() {
		s.summaryCache.Delete(summaryKey(owner, due.Year(), int(due.Month())))
	}
	s.upcomingCache.Delete(owner)
}
