package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"

	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/resilience"
	"github.com/ruslano69/stockreport/pkg/store"
)

// Error envelopes returned to clients. Database details are only logged.
const (
	msgInventoryFailed = "Failed to fetch inventory data"
	msgSalesFailed     = "Failed to fetch sales report data"
	msgBadRequest      = "Invalid request body"
)

const maxBodyBytes = 1 << 16

type reportsHandler struct {
	store store.Store
}

// Inventory handles GET /api/inventory.
func (h *reportsHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rows, err := h.store.Inventory(r.Context())
	if err != nil {
		queryDuration.WithLabelValues("inventory", "error").Observe(time.Since(start).Seconds())
		log.Error().Err(err).Msg("Error fetching inventory data")
		writeError(w, failureStatus(err), msgInventoryFailed)
		return
	}
	queryDuration.WithLabelValues("inventory", "ok").Observe(time.Since(start).Seconds())
	reportRows.WithLabelValues("inventory", "").Set(float64(len(rows)))

	writeRecords(w, r, rows)
}

// salesRequest is the POST body. Only dateFilter is read.
type salesRequest struct {
	DateFilter string `json:"dateFilter"`
}

// Sales handles GET /api/sales-report (all rows) and POST with a
// {"dateFilter": "..."} body. Unknown tokens select all rows.
func (h *reportsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	filter := report.FilterAll
	if r.Method == http.MethodPost {
		req, err := decodeSalesRequest(r.Body)
		if err != nil {
			log.Warn().Err(err).Msg("bad sales-report request")
			writeError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		filter = report.ParseDateFilter(req.DateFilter)
	}

	start := time.Now()
	rows, err := h.store.Sales(r.Context(), filter)
	if err != nil {
		queryDuration.WithLabelValues("sales", "error").Observe(time.Since(start).Seconds())
		log.Error().Err(err).Str("filter", string(filter)).Msg("Error fetching sales report data")
		writeError(w, failureStatus(err), msgSalesFailed)
		return
	}
	queryDuration.WithLabelValues("sales", "ok").Observe(time.Since(start).Seconds())
	reportRows.WithLabelValues("sales", string(filter)).Set(float64(len(rows)))

	writeRecords(w, r, rows)
}

// decodeSalesRequest accepts an empty body as "no filter".
func decodeSalesRequest(body io.Reader) (salesRequest, error) {
	var req salesRequest
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return req, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode body: %w", err)
	}
	return req, nil
}

func failureStatus(err error) int {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeRecords sends rows as a JSON array with a strong ETag derived from
// the body; a matching If-None-Match gets 304 without a body.
func writeRecords[R report.Record](w http.ResponseWriter, r *http.Request, rows []R) {
	if rows == nil {
		rows = []R{}
	}
	body, err := json.Marshal(rows)
	if err != nil {
		log.Error().Err(err).Msg("encode records")
		writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
