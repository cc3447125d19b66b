// Package dashboard holds the operator view: its navigation state, the view
// model rendered from a page of results, and a controller that keeps both in sync
// with the listing API.
package dashboard

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fenilmodi00/ipo-tracker/models"
)

// DefaultLimit is the page size the dashboard requests
const DefaultLimit = 10

// State is everything that decides which page the dashboard shows
type State struct {
	Tab    models.Tab
	Page   int
	Search string
}

// InitialState is the live tab, first page, no search
func InitialState() State {
	return State{Tab: models.TabLive, Page: 1}
}

// WithTab switches tab and returns to the first page
func (s State) WithTab(tab models.Tab) State {
	if tab != models.TabHistory {
		tab = models.TabLive
	}
	return State{Tab: tab, Page: 1, Search: s.Search}
}

// WithSearch applies a search term and returns to the first page
func (s State) WithSearch(term string) State {
	return State{Tab: s.Tab, Page: 1, Search: strings.TrimSpace(term)}
}

// WithPage moves to page, clamped to [1, totalPages]. totalPages below 1 counts as 1.
func (s State) WithPage(page, totalPages int) State {
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// Editable reports whether row controls accept input on the current tab
func (s State) Editable() bool {
	return s.Tab != models.TabHistory
}

// Params converts the state into query parameters for the listing service
func (s State) Params(limit int) models.QueryParams {
	page := s.Page
	if page < 1 {
		page = 1
	}
	tab := s.Tab
	if tab == "" {
		tab = models.TabLive
	}
	return models.QueryParams{Tab: tab, Page: page, Limit: limit, Search: s.Search}
}

// BuildQuery encodes the state as listing query parameters. Encoding escapes the
// search term so reserved characters survive the round trip.
func BuildQuery(s State, limit int) url.Values {
	params := s.Params(limit)
	values := url.Values{}
	values.Set("tab", string(params.Tab))
	values.Set("page", strconv.Itoa(params.Page))
	values.Set("limit", strconv.Itoa(params.Limit))
	if params.Search != "" {
		values.Set("search", params.Search)
	}
	return values
}

// StateFromQuery reads dashboard state back from request query values.
// Unknown tabs and malformed pages fall back to the defaults.
func StateFromQuery(values url.Values) State {
	state := InitialState()
	if tab, ok := models.ParseTab(values.Get("tab")); ok {
		state.Tab = tab
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		state.Page = page
	}
	state.Search = strings.TrimSpace(values.Get("search"))
	return state
}
