// Package http exposes the tracker as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"carteira/internal/cache"
	"carteira/internal/log"
	"carteira/internal/services"
)

type Server struct {
	http.Server
	tracker     *services.Tracker
	rateLimiter *rateLimiter

	// Month dashboards are the only expensive read model.
	dashboardCache *cache.LRUCache[services.Dashboard]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, tracker *services.Tracker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		tracker:        tracker,
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRUCache[services.Dashboard](24, 5*time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.guard(s.handleDashboard))

	mux.HandleFunc("GET /api/fixed-items", s.guard(s.handleListFixedItems))
	mux.HandleFunc("POST /api/fixed-items", s.guard(s.handleCreateFixedItem))
	mux.HandleFunc("GET /api/fixed-items/{id}", s.guard(s.handleGetFixedItem))
	mux.HandleFunc("PUT /api/fixed-items/{id}", s.guard(s.handleUpdateFixedItem))
	mux.HandleFunc("DELETE /api/fixed-items/{id}", s.guard(s.handleDeleteFixedItem))
	mux.HandleFunc("POST /api/fixed-items/{id}/toggle", s.guard(s.handleToggleFixedItem))
	mux.HandleFunc("GET /api/fixed-items/{id}/status", s.guard(s.handleFixedItemStatus))
	mux.HandleFunc("POST /api/fixed-items/{id}/generate", s.guard(s.handleGenerate))
	mux.HandleFunc("POST /api/fixed-items/{id}/undo", s.guard(s.handleUndo))

	mux.HandleFunc("POST /api/months/{month}/reconcile", s.guard(s.handleReconcileMonth))
	mux.HandleFunc("DELETE /api/months/{month}/generated", s.guard(s.handleClearMonth))

	mux.HandleFunc("GET /api/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.guard(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.guard(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.guard(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.guard(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.guard(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/variable-items", s.guard(s.handleListVariableItems))
	mux.HandleFunc("POST /api/variable-items", s.guard(s.handleCreateVariableItem))
	mux.HandleFunc("PUT /api/variable-items/{id}", s.guard(s.handleUpdateVariableItem))
	mux.HandleFunc("DELETE /api/variable-items/{id}", s.guard(s.handleDeleteVariableItem))
	mux.HandleFunc("POST /api/variable-items/{id}/complete", s.guard(s.handleCompleteVariableItem))

	return s
}

// Caches registers the server's caches with a cleanup manager.
func (s *Server) Caches(m *cache.Manager) {
	m.Register(s.dashboardCache)
}

// Shutdown stops the cleanup goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// guard wraps a handler with security headers, rate limiting on mutations,
// and request logging.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		log.LogHTTPStart(ctx, r, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		log.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidate drops the cached dashboards after a mutation.
func (s *Server) invalidate() {
	s.dashboardCache.Clear()
}
