// Package pipeline turns a row set plus transient table state into the page
// of rows a view displays.
//
// Two implementations share the [TablePipeline] interface. [LocalPipeline]
// owns search, column filters, sort and pagination and computes
// filter, then sort, then paginate itself. [DelegatedPipeline] computes
// nothing: the caller supplies an already shaped page plus totals, and every
// user intent is forwarded through [Callbacks].
//
// All state transitions go through the pure [Reduce] function, so the table
// state machine can be tested without any rendering.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/predicate"
)

// Mode selects who owns filtering, sorting and pagination.
type Mode int

const (
	ModeLocal Mode = iota
	ModeDelegated
)

func (m Mode) String() string {
	if m == ModeDelegated {
		return "delegated"
	}
	return "local"
}

// ParseMode parses "local" or "delegated".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "":
		return ModeLocal, nil
	case "delegated", "remote", "server":
		return ModeDelegated, nil
	}
	return ModeLocal, fmt.Errorf("unknown pipeline mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SortDirection is the direction of the active sort, or none.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAscending
	SortDescending
)

func (d SortDirection) String() string {
	switch d {
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	}
	return ""
}

func (d SortDirection) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *SortDirection) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "asc", "ascending":
		*d = SortAscending
	case "desc", "descending":
		*d = SortDescending
	case "", "none":
		*d = SortNone
	default:
		return fmt.Errorf("unknown sort direction %q", b)
	}
	return nil
}

// SortState is the sort column and its direction.
type SortState struct {
	Column    string        `json:"column,omitempty"`
	Direction SortDirection `json:"direction"`
}

// Active reports whether a sort should be applied.
func (s SortState) Active() bool {
	return s.Column != "" && s.Direction != SortNone
}

// Toggle returns the state after clicking column's header: a new column starts
// ascending, the same column cycles ascending, descending, none.
func (s SortState) Toggle(column string) SortState {
	if column != s.Column {
		return SortState{Column: column, Direction: SortAscending}
	}
	switch s.Direction {
	case SortNone:
		return SortState{Column: column, Direction: SortAscending}
	case SortAscending:
		return SortState{Column: column, Direction: SortDescending}
	}
	return SortState{}
}

func (s SortState) direction() predicate.Direction {
	if s.Direction == SortDescending {
		return predicate.Descending
	}
	return predicate.Ascending
}

// FilterKind is the widget a column filter is edited with.
type FilterKind int

const (
	FilterSearch FilterKind = iota
	FilterDropdown
	FilterMultiSelect
	FilterDate
	FilterDateRange
	FilterDateTime
)

var filterKindNames = map[FilterKind]string{
	FilterSearch:      "search",
	FilterDropdown:    "dropdown",
	FilterMultiSelect: "multiselect",
	FilterDate:        "date",
	FilterDateRange:   "daterange",
	FilterDateTime:    "datetime",
}

func (k FilterKind) String() string { return filterKindNames[k] }

func (k FilterKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FilterKind) UnmarshalText(b []byte) error {
	for kind, name := range filterKindNames {
		if strings.EqualFold(name, string(b)) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown filter kind %q", b)
}

// Coerce shapes a raw filter value, as it arrives from a form or JSON body,
// into the value the predicate library expects for this kind. Values that
// cannot be shaped are returned unchanged.
func (k FilterKind) Coerce(v cell.Value) cell.Value {
	switch k {
	case FilterDate, FilterDateTime:
		if s, ok := v.Str(); ok {
			if t, ok := cell.ParseDate(s); ok {
				return cell.Date(t)
			}
		}
	case FilterDateRange:
		if v.Kind() == cell.KindMapping {
			start, _ := v.Field(cell.StartDateKey)
			end, _ := v.Field(cell.EndDateKey)
			return cell.DateRange(coerceBound(start), coerceBound(end))
		}
	case FilterMultiSelect:
		if s, ok := v.Str(); ok && s != "" {
			return cell.Strings(s)
		}
	}
	return v
}

func coerceBound(v cell.Value) cell.Value {
	if s, ok := v.Str(); ok {
		if s == "" {
			return cell.Null()
		}
		if t, ok := cell.ParseDate(s); ok {
			return cell.Date(t)
		}
	}
	return v
}

// FilterSpec describes one filterable column.
type FilterSpec struct {
	Column  string     `json:"column"`
	Kind    FilterKind `json:"kind"`
	Options []string   `json:"options,omitempty"`

	// CurrentValue is the caller-owned filter value, read in Delegated mode.
	CurrentValue cell.Value `json:"current_value"`

	// OnChange, when set, receives Delegated-mode filter changes for this
	// column instead of Callbacks.OnColumnFilterChange.
	OnChange func(cell.Value) `json:"-"`
}

// Renderer produces the display value for one cell.
type Renderer func(row cell.Row, value cell.Value) cell.Value

// Callbacks receive user intents. Any of them may be nil, which makes the
// corresponding control inert in Delegated mode.
type Callbacks struct {
	OnSearchCommit       func(term string)
	OnColumnFilterChange func(column string, value cell.Value)
	OnSortChange         func(sort SortState)
	OnPageChange         func(page int)
	OnLimitChange        func(limit int)
}

// Options configure a pipeline at construction.
type Options struct {
	Mode Mode

	// SearchEnabled turns on the global search test in Local mode.
	SearchEnabled bool

	// ReservedPrefix marks bookkeeping columns hidden from the column set.
	ReservedPrefix string

	// PageSize is the initial local limit and the Delegated fallback limit.
	PageSize int

	// Locale drives the comparator's string collation.
	Locale language.Tag

	Renderers map[string]Renderer
	Callbacks Callbacks
	Logger    *slog.Logger
}

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

// DefaultReservedPrefix is the conventional bookkeeping column prefix.
const DefaultReservedPrefix = "_"

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Locale == language.Und {
		o.Locale = language.English
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Input is what the caller supplies on every render.
type Input struct {
	Rows    []cell.Row
	Filters []FilterSpec

	// TotalCount, Page and Limit are caller-owned in Delegated mode and
	// ignored in Local mode.
	TotalCount int
	Page       int
	Limit      int
}

// View is everything a renderer needs.
type View struct {
	Mode    Mode                  `json:"mode"`
	Rows    []cell.Row            `json:"rows"`
	Columns []string              `json:"columns"`
	Sort    SortState             `json:"sort"`
	Page    PageMeta              `json:"page"`
	Search  string                `json:"search"`
	Filters map[string]cell.Value `json:"filters"`
}

// TablePipeline is the single integration point views depend on.
type TablePipeline interface {
	// Mode reports the operating mode chosen at construction.
	Mode() Mode
	// Render stores the caller's input and returns the resulting view.
	Render(in Input) View
	// Dispatch applies one user event and returns the resulting view.
	Dispatch(e Event) View
	// State returns a copy of the transient state.
	State() State
	// Display returns the value a renderer should show for a cell.
	Display(row cell.Row, column string) cell.Value
}

// New returns the pipeline implementation for opts.Mode.
func New(opts Options) TablePipeline {
	if opts.Mode == ModeDelegated {
		return NewDelegated(opts)
	}
	return NewLocal(opts)
}

func display(renderers map[string]Renderer, row cell.Row, column string) cell.Value {
	v := row.Get(column)
	if r, ok := renderers[column]; ok && r != nil {
		return r(row, v)
	}
	return v
}
