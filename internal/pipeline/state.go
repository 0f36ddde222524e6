package pipeline

import (
	"maps"

	"github.com/JonMunkholm/dashboard/internal/cell"
)

// State is the transient table state owned by one mounted pipeline.
type State struct {
	// SearchDraft is the text currently in the search box.
	SearchDraft string `json:"search_draft"`
	// SearchTerm is the last committed search text.
	SearchTerm string `json:"search_term"`
	// Filters holds column filter values; unused in Delegated mode.
	Filters map[string]cell.Value `json:"filters"`
	Sort    SortState             `json:"sort"`
	// Page and Limit are the local pagination; Delegated mode reads the
	// caller's values instead.
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewState returns the initial state for a table with the given page size.
func NewState(limit int) State {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return State{Page: 1, Limit: limit}
}

// EventType names a user event.
type EventType string

const (
	EventSearchInput  EventType = "search_input"
	EventSearchKey    EventType = "search_key"
	EventSearchBlur   EventType = "search_blur"
	EventFilterChange EventType = "filter_change"
	EventSortClick    EventType = "sort_click"
	EventPageChange   EventType = "page_change"
	EventPrevPage     EventType = "prev_page"
	EventNextPage     EventType = "next_page"
	EventLimitChange  EventType = "limit_change"
)

// KeyEnter is the search key that commits the draft.
const KeyEnter = "Enter"

// Event is one user action on the table.
type Event struct {
	Type   EventType  `json:"type"`
	Text   string     `json:"text,omitempty"`
	Key    string     `json:"key,omitempty"`
	Column string     `json:"column,omitempty"`
	Value  cell.Value `json:"value"`
	Page   int        `json:"page,omitempty"`
	Limit  int        `json:"limit,omitempty"`
}

func SearchInput(text string) Event { return Event{Type: EventSearchInput, Text: text} }
func SearchKey(key string) Event    { return Event{Type: EventSearchKey, Key: key} }
func SearchBlur() Event             { return Event{Type: EventSearchBlur} }
func SortClick(column string) Event { return Event{Type: EventSortClick, Column: column} }
func PageChange(page int) Event     { return Event{Type: EventPageChange, Page: page} }
func PrevPage() Event               { return Event{Type: EventPrevPage} }
func NextPage() Event               { return Event{Type: EventNextPage} }
func LimitChange(limit int) Event   { return Event{Type: EventLimitChange, Limit: limit} }

func FilterChange(column string, value cell.Value) Event {
	return Event{Type: EventFilterChange, Column: column, Value: value}
}

// IntentType names a change a collaborator may need to act on.
type IntentType string

const (
	IntentSearchCommit IntentType = "search_commit"
	IntentFilterChange IntentType = "filter_change"
	IntentSortChange   IntentType = "sort_change"
	IntentPageChange   IntentType = "page_change"
	IntentLimitChange  IntentType = "limit_change"
)

// Intent is emitted by Reduce for every committed change.
type Intent struct {
	Type   IntentType
	Search string
	Column string
	Value  cell.Value
	Sort   SortState
	Page   int
	Limit  int
}

// Reduce applies e to s. It never mutates s; the Filters map is copied on
// write. Search commits fire on Enter, on blur, and when the draft becomes
// empty, never on ordinary keystrokes. Committing a search, changing a filter
// or changing the limit resets the page to 1.
func Reduce(s State, e Event) (State, []Intent) {
	switch e.Type {
	case EventSearchInput:
		wasEmpty := s.SearchDraft == ""
		s.SearchDraft = e.Text
		if e.Text == "" && !wasEmpty {
			return commitSearch(s)
		}
		return s, nil

	case EventSearchKey:
		if e.Key != KeyEnter {
			return s, nil
		}
		return commitSearch(s)

	case EventSearchBlur:
		return commitSearch(s)

	case EventFilterChange:
		if e.Column == "" {
			return s, nil
		}
		filters := make(map[string]cell.Value, len(s.Filters)+1)
		maps.Copy(filters, s.Filters)
		filters[e.Column] = e.Value
		s.Filters = filters
		s.Page = 1
		return s, []Intent{{Type: IntentFilterChange, Column: e.Column, Value: e.Value}}

	case EventSortClick:
		if e.Column == "" {
			return s, nil
		}
		s.Sort = s.Sort.Toggle(e.Column)
		return s, []Intent{{Type: IntentSortChange, Sort: s.Sort}}

	case EventPageChange:
		if e.Page < 1 {
			return s, nil
		}
		s.Page = e.Page
		return s, []Intent{{Type: IntentPageChange, Page: e.Page}}

	case EventPrevPage:
		if s.Page <= 1 {
			return s, nil
		}
		s.Page--
		return s, []Intent{{Type: IntentPageChange, Page: s.Page}}

	case EventNextPage:
		s.Page++
		return s, []Intent{{Type: IntentPageChange, Page: s.Page}}

	case EventLimitChange:
		if e.Limit < 1 {
			return s, nil
		}
		s.Limit = e.Limit
		s.Page = 1
		return s, []Intent{
			{Type: IntentLimitChange, Limit: e.Limit},
			{Type: IntentPageChange, Page: 1},
		}
	}
	return s, nil
}

func commitSearch(s State) (State, []Intent) {
	s.SearchTerm = s.SearchDraft
	s.Page = 1
	return s, []Intent{{Type: IntentSearchCommit, Search: s.SearchTerm}}
}

// resolveNav turns prev/next into an absolute page change against the
// current page and page count, and drops navigation that its control would
// not allow.
func resolveNav(e Event, page, totalPages int) (Event, bool) {
	switch e.Type {
	case EventPrevPage:
		if page <= 1 {
			return e, false
		}
		return PageChange(page - 1), true
	case EventNextPage:
		if page >= totalPages {
			return e, false
		}
		return PageChange(page + 1), true
	case EventPageChange:
		if e.Page < 1 || (totalPages > 0 && e.Page > totalPages) {
			return e, false
		}
	}
	return e, true
}
