package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/stockreport/pkg/dataset"
	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	v, err := s.inventory.get(r.Context(), inventoryView)
	if err != nil {
		viewUnavailable(w, err)
		return
	}
	p := newPage(s, s.invSchema, v.hook.Snapshot(), "/inventory", r)
	p.ErrorPrefix = inventoryPrefix
	p.DBError = v.seedErr != nil && p.State.LastUpdated.IsZero()
	render(w, p)
}

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	filter := report.ParseDateFilter(r.URL.Query().Get("filter"))
	v, err := s.sales.get(r.Context(), salesView(filter))
	if err != nil {
		viewUnavailable(w, err)
		return
	}
	p := newPage(s, s.salesSchema, v.hook.Snapshot(), "/sales-report", r)
	p.Filter = filter
	p.Query.Set("filter", string(filter))
	p.ErrorPrefix = salesPrefix
	render(w, p)
}

// The refresh buttons post here; the page is shown again with the same
// sort, filter and width.
func (s *Server) handleInventoryRefresh(w http.ResponseWriter, r *http.Request) {
	v, err := s.inventory.get(r.Context(), inventoryView)
	if err != nil {
		viewUnavailable(w, err)
		return
	}
	v.hook.Refresh(r.Context())
	redirectBack(w, r, "/inventory")
}

func (s *Server) handleSalesRefresh(w http.ResponseWriter, r *http.Request) {
	filter := report.ParseDateFilter(r.URL.Query().Get("filter"))
	v, err := s.sales.get(r.Context(), salesView(filter))
	if err != nil {
		viewUnavailable(w, err)
		return
	}
	v.hook.Refresh(r.Context())
	redirectBack(w, r, "/sales-report")
}

func redirectBack(w http.ResponseWriter, r *http.Request, path string) {
	target := path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func viewUnavailable(w http.ResponseWriter, err error) {
	log.Warn().Err(err).Msg("view unavailable")
	http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
}

func (s *Server) handleInventoryXLSX(w http.ResponseWriter, r *http.Request) {
	v, err := s.inventory.get(r.Context(), inventoryView)
	if err != nil {
		viewUnavailable(w, err)
		return
	}
	st := loaded(r.Context(), v.hook)
	rows := s.invSchema.Sort(st.Records, report.ParseSortState(r.URL.Query(), s.invSchema.DefaultSort))
	name := fmt.Sprintf("inventory-%s.xlsx", s.cfg.Now().Format("20060102"))
	writeWorkbook(w, name, s.invSchema, rows)
}

func (s *Server) handleSalesXLSX(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := report.ParseDateFilter(q.Get("filter"))
	v, err := s.sales.get(r.Context(), salesView(filter))
	if err != nil {
		viewUnavailable(w, err)
		return
	}
	st := loaded(r.Context(), v.hook)
	rows := s.salesSchema.Sort(st.Records, report.ParseSortState(q, s.salesSchema.DefaultSort))
	name := fmt.Sprintf("sales-report-%s-%s.xlsx", filter, s.cfg.Now().Format("20060102"))
	writeWorkbook(w, name, s.salesSchema, rows)
}

// loaded returns the view state, fetching once when the view has never
// loaded anything yet.
func loaded[R report.Record](ctx context.Context, h *dataset.Hook[R]) dataset.State[R] {
	st := h.Snapshot()
	if st.LastUpdated.IsZero() && len(st.Records) == 0 {
		h.Refresh(ctx)
		st = h.Snapshot()
	}
	return st
}

// writeWorkbook sends rows as an XLSX attachment. The workbook is built
// before the first byte is written, so a failure still gets a 500.
func writeWorkbook[R report.Record](w http.ResponseWriter, filename string, schema *report.Schema[R], rows []R) {
	var buf bytes.Buffer
	if err := xlsx.WriteReport(&buf, schema, rows, ""); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("xlsx export failed")
		http.Error(w, "Failed to export report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
