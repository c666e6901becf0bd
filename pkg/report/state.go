package report

import (
	"net/url"
	"strings"
)

// Direction of a sort.
type Direction string

const (
	None Direction = ""
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" in any case; anything else is None.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc
	case "desc":
		return Desc
	}
	return None
}

// SortState is the active column and its direction. An empty column means
// fetch order.
type SortState struct {
	Column    string
	Direction Direction
}

// Active reports whether the state reorders rows at all.
func (s SortState) Active() bool {
	return s.Column != "" && s.Direction != None
}

// Toggle is the header-click transition: the active column flips between
// ascending and descending, any other column starts ascending.
func (s SortState) Toggle(column string) SortState {
	if column == s.Column && s.Direction == Asc {
		return SortState{Column: column, Direction: Desc}
	}
	if column == s.Column && s.Direction == Desc {
		return SortState{Column: column, Direction: Asc}
	}
	return SortState{Column: column, Direction: Asc}
}

// Encode writes the state into query parameters "sort" and "dir".
func (s SortState) Encode(q url.Values) {
	q.Set("sort", s.Column)
	if s.Direction == None {
		q.Del("dir")
		return
	}
	q.Set("dir", string(s.Direction))
}

// ParseSortState reads "sort" and "dir". Without a "sort" parameter the
// report default applies; an empty "sort" selects fetch order.
func ParseSortState(q url.Values, def SortState) SortState {
	if _, ok := q["sort"]; !ok {
		return def
	}
	col := strings.TrimSpace(q.Get("sort"))
	if col == "" {
		return SortState{}
	}
	dir := ParseDirection(q.Get("dir"))
	if dir == None {
		dir = Asc
	}
	return SortState{Column: col, Direction: dir}
}
