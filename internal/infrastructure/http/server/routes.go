package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sokohub/settlement-service/internal/infrastructure/http/middleware"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
)

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", s.healthHandler.HandleHealth())

	mux.HandleFunc("/checkout", s.checkoutHandler.HandleCheckout())
	mux.HandleFunc("/stock-requests/", s.handleStockRequestRoutes)
	mux.HandleFunc("/reconciliation", s.reconciliationHandler.HandleList)
	mux.HandleFunc("/reconciliation/", s.handleReconciliationRoutes)

	handler := middleware.NewRecoveryMiddleware(s.logger)(mux)
	handler = middleware.NewLoggingMiddleware(s.logger)(handler)
	handler = monitoring.WrapHandler(handler)
	handler = s.corsMiddleware(handler)
	handler = s.timeoutMiddleware(handler)

	return handler
}

func (s *Server) handleStockRequestRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/stock-requests/")
	parts := strings.Split(path, "/")

	if len(parts) == 2 && parts[0] != "" && parts[1] == "pay" {
		s.stockRequestHandler.HandlePay(w, r)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) handleReconciliationRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/reconciliation/")
	parts := strings.Split(path, "/")

	if len(parts) == 2 && parts[0] != "" && parts[1] == "resolve" {
		s.reconciliationHandler.HandleResolve(w, r)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Expose-Headers", "Link")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// The mobile-money wait can legitimately hold a request for the full
// confirmation window, so the cutoff sits above it.
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.TimeoutHandler(next, 140*time.Second, "Request timeout")
}
