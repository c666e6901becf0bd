package dashboard

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ruslano69/stockreport/pkg/dataset"
	"github.com/ruslano69/stockreport/pkg/report"
)

// Page is the view state both renderers draw from: the fetch state, the
// sort state from the URL and the rows in display order.
type Page[R report.Record] struct {
	Schema   *report.Schema[R]
	State    dataset.State[R]
	Sort     report.SortState
	Rows     []R
	Viewport Viewport
	Width    int

	Path   string
	Query  url.Values // parameters every link keeps: filter and w
	Filter report.DateFilter

	ErrorPrefix string
	DBError     bool

	Interval   time.Duration
	Breakpoint int
	Location   *time.Location
}

func newPage[R report.Record](s *Server, schema *report.Schema[R], st dataset.State[R], path string, r *http.Request) *Page[R] {
	q := r.URL.Query()
	width := ViewportWidth(r)
	p := &Page[R]{
		Schema:     schema,
		State:      st,
		Sort:       report.ParseSortState(q, schema.DefaultSort),
		Viewport:   Classify(width, s.cfg.Breakpoint),
		Width:      width,
		Path:       path,
		Query:      url.Values{},
		Interval:   s.cfg.Interval,
		Breakpoint: s.cfg.Breakpoint,
		Location:   s.cfg.Location,
	}
	if width > 0 {
		p.Query.Set("w", strconv.Itoa(width))
	}
	p.Rows = schema.Sort(st.Records, p.Sort)
	return p
}

// URL links to this page with the given sort state.
func (p *Page[R]) URL(st report.SortState) string {
	return p.link(p.Path, st)
}

// SortURL is the target of a click on the header of column.
func (p *Page[R]) SortURL(column string) string {
	return p.URL(p.Sort.Toggle(column))
}

// RefreshURL is the action of the refresh button.
func (p *Page[R]) RefreshURL() string {
	return p.link(p.Path+"/refresh", p.Sort)
}

// ExportURL downloads the current view as XLSX.
func (p *Page[R]) ExportURL() string {
	return p.link(p.Path+".xlsx", p.Sort)
}

func (p *Page[R]) link(path string, st report.SortState) string {
	q := url.Values{}
	for k, v := range p.Query {
		q[k] = v
	}
	st.Encode(q)
	return path + "?" + q.Encode()
}

// Status is the line above the report.
func (p *Page[R]) Status() string {
	switch {
	case p.State.Loading:
		return "Refreshing data..."
	case !p.State.LastUpdated.IsZero():
		return "Last updated: " + p.State.LastUpdated.In(p.Location).Format("15:04:05")
	default:
		return "Loading..."
	}
}

// Error is the fetch error banner text, empty when the last fetch succeeded.
func (p *Page[R]) Error() string {
	if p.State.LastError == "" {
		return ""
	}
	return p.ErrorPrefix + p.State.LastError
}

// Waiting reports that nothing can be shown until the first fetch lands.
func (p *Page[R]) Waiting() bool {
	return len(p.Rows) == 0 && (p.State.Loading || (p.State.LastUpdated.IsZero() && p.State.LastError == ""))
}

// Total is the formatted footer sum over the displayed rows.
func (p *Page[R]) Total() (label, value string, ok bool) {
	sum, ok := p.Schema.Total(p.Rows)
	if !ok {
		return "", "", false
	}
	return p.Schema.TotalLabel, p.Schema.FormatTotal(sum), true
}

// Arrow marks the active sort column.
func (p *Page[R]) Arrow(column string) string {
	if p.Sort.Column != column {
		return ""
	}
	switch p.Sort.Direction {
	case report.Asc:
		return "↑"
	case report.Desc:
		return "↓"
	}
	return ""
}

// ReloadAfter is the browser auto-reload period: the refresh interval, or
// a short poll while the first fetch is running.
func (p *Page[R]) ReloadAfter() time.Duration {
	if p.Waiting() {
		return 2 * time.Second
	}
	return p.Interval
}
