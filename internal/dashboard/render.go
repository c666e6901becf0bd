package dashboard

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/ruslano69/stockreport/pkg/report"
)

// render writes the full HTML page. Desktop viewports get a table, mobile
// ones a list of cards; both draw the same Page.
func render[R report.Record](w http.ResponseWriter, p *Page[R]) {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
`)
	fmt.Fprintf(&b, `<meta http-equiv="refresh" content="%d">`+"\n", int(p.ReloadAfter().Seconds()))
	b.WriteString(`<title>` + html.EscapeString(p.Schema.Title) + `</title>` + "\n")
	b.WriteString(pageCSS)
	b.WriteString("</head>\n<body>\n")

	writeNavbar(&b, p.Schema.Name, p.Filter, p.Query.Get("w"))

	b.WriteString(`<main class="container">`)
	b.WriteString(`<h1>` + html.EscapeString(p.Schema.Title) + `</h1>`)
	if p.DBError {
		writeBanner(&b, seedFailure)
	}

	b.WriteString(`<div class="panel">`)
	writeToolbar(&b, p)
	if msg := p.Error(); msg != "" {
		writeBanner(&b, msg)
	}

	switch {
	case p.Waiting():
		b.WriteString(`<div class="placeholder"><div class="spinner"></div><p>Loading...</p></div>`)
	case len(p.Rows) == 0:
		b.WriteString(`<div class="placeholder"><p>` + html.EscapeString(p.Schema.Empty) + `</p></div>`)
	case p.Viewport == Mobile:
		writeCards(&b, p)
	default:
		writeTable(&b, p)
	}

	if label, value, ok := p.Total(); ok && len(p.Rows) > 0 {
		b.WriteString(`<div class="total">` + html.EscapeString(label) + `: <strong>` + html.EscapeString(value) + `</strong></div>`)
	}
	b.WriteString(`</div></main>`)

	fmt.Fprintf(&b, viewportScript, p.Breakpoint)
	b.WriteString("</body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Accept-CH", clientHints)
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprint(w, b.String())
}

func writeNavbar(b *strings.Builder, active string, filter report.DateFilter, width string) {
	keep := func(q string) string {
		if width == "" {
			return q
		}
		if q == "" {
			return "?w=" + width
		}
		return q + "&w=" + width
	}

	b.WriteString(`<nav class="navbar">`)
	cls := "nav-link"
	if active == "inventory" {
		cls += " active"
	}
	b.WriteString(`<a class="` + cls + `" href="/inventory` + html.EscapeString(keep("")) + `">Stan magazynowy</a>`)

	cls = "nav-link"
	caption := "Raport sprzedaży"
	if active == "sales" {
		cls += " active"
		caption += ": " + filter.Label()
	}
	b.WriteString(`<details class="menu"><summary class="` + cls + `">` + html.EscapeString(caption) + `</summary><div class="menu-items">`)
	for _, f := range report.DateFilters() {
		item := "menu-item"
		if active == "sales" && f == filter {
			item += " active"
		}
		href := "/sales-report" + keep("?filter="+string(f))
		b.WriteString(`<a class="` + item + `" href="` + html.EscapeString(href) + `">` + html.EscapeString(f.Label()) + `</a>`)
	}
	b.WriteString(`</div></details></nav>`)
}

func writeToolbar[R report.Record](b *strings.Builder, p *Page[R]) {
	b.WriteString(`<div class="toolbar">`)
	status := "status"
	if p.State.Loading {
		status += " busy"
	}
	b.WriteString(`<span class="` + status + `">` + html.EscapeString(p.Status()) + `</span>`)
	b.WriteString(`<div class="actions">`)
	b.WriteString(`<a class="btn btn-ghost" href="` + html.EscapeString(p.ExportURL()) + `">XLSX</a>`)
	b.WriteString(`<form method="post" action="` + html.EscapeString(p.RefreshURL()) + `">`)
	disabled := ""
	if p.State.Loading {
		disabled = " disabled"
	}
	b.WriteString(`<button class="btn btn-primary" type="submit" title="Refresh data"` + disabled + `>&#x21bb;</button>`)
	b.WriteString(`</form></div></div>`)
}

func writeBanner(b *strings.Builder, msg string) {
	b.WriteString(`<div class="error-bar"><p>` + html.EscapeString(msg) + `</p></div>`)
}

func writeTable[R report.Record](b *strings.Builder, p *Page[R]) {
	cols := p.Schema.Visible()

	b.WriteString(`<div class="data-wrapper"><table class="data-table"><thead><tr>`)
	for _, c := range cols {
		b.WriteString(`<th><a href="` + html.EscapeString(p.SortURL(c.Key)) + `">` + html.EscapeString(c.Label))
		if arrow := p.Arrow(c.Key); arrow != "" {
			b.WriteString(` <span class="arrow">` + arrow + `</span>`)
		}
		b.WriteString(`</a></th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)

	for _, row := range p.Rows {
		b.WriteString(`<tr>`)
		for _, c := range cols {
			cls := ""
			if c.Kind == report.KindNumeric {
				cls = ` class="num"`
			}
			b.WriteString(`<td` + cls + `>` + html.EscapeString(p.Schema.Cell(row, c.Key)) + `</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></div>`)
	b.WriteString(`<div class="stats-bar"><span><strong>` + strconv.Itoa(len(p.Rows)) + `</strong> rows</span></div>`)
}

// writeCards lists every row as label/value pairs. Headers do not exist
// here, so the sort links sit in a bar above the cards.
func writeCards[R report.Record](b *strings.Builder, p *Page[R]) {
	cols := p.Schema.Visible()

	b.WriteString(`<div class="sort-bar">`)
	for _, c := range cols {
		cls := "sort-link"
		if p.Sort.Column == c.Key {
			cls += " active"
		}
		b.WriteString(`<a class="` + cls + `" href="` + html.EscapeString(p.SortURL(c.Key)) + `">` + html.EscapeString(c.Label))
		if arrow := p.Arrow(c.Key); arrow != "" {
			b.WriteString(` ` + arrow)
		}
		b.WriteString(`</a>`)
	}
	b.WriteString(`</div><div class="cards">`)

	for _, row := range p.Rows {
		b.WriteString(`<div class="card-item">`)
		for _, c := range cols {
			b.WriteString(`<div class="pair"><span class="label">` + html.EscapeString(c.Label) +
				`</span><span class="value">` + html.EscapeString(p.Schema.Cell(row, c.Key)) + `</span></div>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
}

// viewportScript reports the window width through the "w" parameter and
// reloads when a resize crosses the breakpoint.
const viewportScript = `<script>
(function () {
  var bp = %d, u = new URL(location.href), w = window.innerWidth;
  if (u.searchParams.get("w") === null) { u.searchParams.set("w", w); location.replace(u); return; }
  var mobile = w < bp;
  window.addEventListener("resize", function () {
    if ((window.innerWidth < bp) !== mobile) { u.searchParams.set("w", window.innerWidth); location.replace(u); }
  });
})();
</script>
`

const pageCSS = `<style>
  * { box-sizing:border-box; margin:0; padding:0; }
  body { font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif; background:#111827; color:#e5e7eb; min-height:100vh; }
  .navbar { position:sticky; top:0; z-index:50; display:flex; gap:16px; align-items:center; padding:12px 24px; background:#030712; box-shadow:0 1px 3px rgba(0,0,0,.4); }
  .nav-link { color:#e5e7eb; text-decoration:none; padding:8px 12px; border-radius:6px; font-size:14px; font-weight:500; cursor:pointer; list-style:none; }
  .nav-link:hover { background:#1f2937; color:#fff; }
  .nav-link.active { background:#374151; color:#fff; }
  .menu { position:relative; }
  .menu-items { position:absolute; left:0; margin-top:8px; width:192px; background:#1f2937; border-radius:6px; padding:4px 0; box-shadow:0 4px 12px rgba(0,0,0,.5); }
  .menu-item { display:block; padding:8px 16px; font-size:14px; color:#d1d5db; text-decoration:none; }
  .menu-item:hover, .menu-item.active { background:#374151; color:#fff; }
  .container { max-width:1600px; margin:0 auto; padding:24px; }
  h1 { font-size:24px; font-weight:600; margin-bottom:16px; }
  .panel { background:#1f2937; border-radius:8px; padding:24px; min-height:calc(100vh - 12rem); display:flex; flex-direction:column; }
  .toolbar { display:flex; justify-content:space-between; align-items:center; margin-bottom:16px; }
  .status { font-size:14px; color:#9ca3af; }
  .status.busy { color:#60a5fa; }
  .actions { display:flex; gap:8px; align-items:center; }
  .btn { padding:8px 12px; border-radius:6px; font-size:14px; font-weight:600; cursor:pointer; border:none; text-decoration:none; }
  .btn-primary { background:#2563eb; color:#fff; }
  .btn-primary:disabled { background:#1e40af; opacity:.7; }
  .btn-ghost { background:#111827; color:#9ca3af; border:1px solid #374151; }
  .error-bar { background:#7f1d1d; border:1px solid #b91c1c; color:#fecaca; padding:12px 16px; border-radius:6px; margin-bottom:16px; }
  .placeholder { display:flex; flex-direction:column; gap:12px; justify-content:center; align-items:center; flex-grow:1; border:1px solid #374151; border-radius:8px; color:#9ca3af; font-size:18px; min-height:300px; }
  .spinner { width:48px; height:48px; border-radius:50%; border-top:2px solid #3b82f6; border-bottom:2px solid #3b82f6; animation:spin 1s linear infinite; }
  @keyframes spin { to { transform:rotate(360deg); } }
  .data-wrapper { overflow-x:auto; }
  .data-table { width:100%; border-collapse:collapse; font-size:14px; }
  .data-table th { padding:12px 24px; text-align:left; font-size:12px; font-weight:500; color:#d1d5db; text-transform:uppercase; letter-spacing:.05em; border-bottom:1px solid #374151; background:#374151; position:sticky; top:0; white-space:nowrap; }
  .data-table th a { color:inherit; text-decoration:none; display:block; }
  .data-table th:hover { background:#4b5563; }
  .data-table td { padding:12px 24px; border-bottom:1px solid #374151; white-space:nowrap; }
  .data-table td.num { text-align:right; font-variant-numeric:tabular-nums; }
  .data-table tr:hover td { background:#374151; }
  .arrow { color:#60a5fa; }
  .stats-bar { padding:12px 0; font-size:12px; color:#6b7280; }
  .sort-bar { display:flex; flex-wrap:wrap; gap:8px; margin-bottom:12px; }
  .sort-link { font-size:12px; padding:4px 8px; border-radius:12px; background:#111827; color:#9ca3af; text-decoration:none; border:1px solid #374151; }
  .sort-link.active { color:#60a5fa; border-color:#2563eb; }
  .cards { display:flex; flex-direction:column; gap:12px; }
  .card-item { background:#111827; border:1px solid #374151; border-radius:8px; padding:12px 16px; }
  .pair { display:flex; justify-content:space-between; gap:12px; padding:4px 0; font-size:14px; }
  .pair .label { color:#9ca3af; font-size:12px; text-transform:uppercase; }
  .total { margin-top:16px; padding-top:16px; border-top:1px solid #374151; text-align:right; font-size:16px; }
</style>
`
