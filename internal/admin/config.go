// Package admin renders list screens for the store's entities. Each
// entity declares an explicit ScreenConfig; one generic renderer
// consumes them all.
package admin

import (
	"context"
	"net/url"
)

// Column maps one cell of a list screen from a row.
type Column struct {
	Name  string
	Value func(row any) string
}

// FilterOption is one selectable value of a screen filter.
type FilterOption struct {
	Value string
	Label string
}

// Filter narrows a screen's rows via a query parameter.
type Filter struct {
	Label   string
	Param   string
	Options []FilterOption
}

// Action is a bulk operation applied to the selected row ids.
type Action struct {
	Slug string
	Name string
	Run  func(ctx context.Context, ids []int64) (int64, error)
}

// ScreenConfig drives the renderer for one entity's list screen.
type ScreenConfig struct {
	Slug    string
	Title   string
	Columns []Column
	Filters []Filter
	Actions []Action

	// Rows loads the screen's rows for the given query parameters
	// (filters, search, page).
	Rows func(ctx context.Context, query url.Values) ([]any, error)

	// RowID extracts the id used by bulk actions.
	RowID func(row any) int64
}

func (c ScreenConfig) action(slug string) (Action, bool) {
	for _, a := range c.Actions {
		if a.Slug == slug {
			return a, true
		}
	}
	return Action{}, false
}
