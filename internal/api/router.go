package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruslano69/stockreport/internal/infra"
)

// NewRouter wires the report API, the probes and /metrics. ui, when not
// nil, serves every other path.
func NewRouter(inf *infra.Infra, ui http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(zerologMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(compress)

	h := &reportsHandler{store: inf.Store}

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(inf))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/inventory", h.Inventory)
		r.Get("/sales-report", h.Sales)
		r.Post("/sales-report", h.Sales)
	})

	if ui != nil {
		r.Mount("/", ui)
	}
	return r
}

// compress gzips responses for clients that accept it.
func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings the database. The breaker state is reported but does
// not fail the probe.
func handleReadyz(inf *infra.Infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"store": "ok"}
		status := http.StatusOK

		if err := inf.Store.Ping(r.Context()); err != nil {
			checks["store"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if inf.Breaker != nil {
			checks["breaker"] = inf.Breaker.State().String()
		}
		writeJSON(w, status, checks)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
