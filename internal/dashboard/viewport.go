package dashboard

import (
	"net/http"
	"strconv"
	"strings"
)

// Viewport selects the renderer: a table on desktop, stacked cards on
// narrow screens.
type Viewport int

const (
	Desktop Viewport = iota
	Mobile
)

func (v Viewport) String() string {
	if v == Mobile {
		return "mobile"
	}
	return "desktop"
}

// Classify maps a CSS pixel width to a viewport. Widths in (0, breakpoint)
// are mobile; an unknown width (0) is desktop.
func Classify(width, breakpoint int) Viewport {
	if width > 0 && width < breakpoint {
		return Mobile
	}
	return Desktop
}

// clientHints are requested from browsers that support them.
const clientHints = "Sec-CH-Viewport-Width, Viewport-Width"

// ViewportWidth reads the width the page reported in the "w" query
// parameter, falling back to the viewport client hints. 0 means unknown.
func ViewportWidth(r *http.Request) int {
	if n := positive(r.URL.Query().Get("w")); n > 0 {
		return n
	}
	if n := positive(r.Header.Get("Sec-CH-Viewport-Width")); n > 0 {
		return n
	}
	return positive(r.Header.Get("Viewport-Width"))
}

func positive(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
