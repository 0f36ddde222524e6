package pipeline

import (
	"maps"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/predicate"
)

// LocalPipeline filters, sorts and paginates a fully materialized row set.
//
// Filtering and sorting are memoized on (rows, search term, column filters,
// sort state); a page or limit change only re-slices the cached result.
type LocalPipeline struct {
	opts  Options
	cmp   *predicate.Comparator
	state State
	input Input

	cols    columnCache
	memo    sortedCache
	derived int
}

type sortedCache struct {
	valid   bool
	rows    []cell.Row
	search  string
	filters map[string]cell.Value
	sort    SortState
	result  []cell.Row
}

type columnCache struct {
	valid bool
	rows  []cell.Row
	cols  []string
}

// NewLocal returns a pipeline that owns all of its state.
func NewLocal(opts Options) *LocalPipeline {
	opts = opts.withDefaults()
	return &LocalPipeline{
		opts:  opts,
		cmp:   predicate.NewComparator(opts.Locale),
		state: NewState(opts.PageSize),
	}
}

func (p *LocalPipeline) Mode() Mode { return ModeLocal }

func (p *LocalPipeline) State() State {
	s := p.state
	s.Filters = maps.Clone(p.state.Filters)
	return s
}

func (p *LocalPipeline) Display(row cell.Row, column string) cell.Value {
	return display(p.opts.Renderers, row, column)
}

// Render stores in and returns the current page. Only Rows and Filters are
// read; totals are derived from the filtered row count.
func (p *LocalPipeline) Render(in Input) View {
	p.input = in
	return p.view()
}

// Dispatch applies e to the local state and returns the new page.
func (p *LocalPipeline) Dispatch(e Event) View {
	if e.Type == EventPrevPage || e.Type == EventNextPage || e.Type == EventPageChange {
		total := TotalPages(len(p.sorted()), p.state.Limit)
		page := clampPage(p.state.Page, total)
		var ok bool
		if e, ok = resolveNav(e, page, total); !ok {
			return p.view()
		}
	}

	next, intents := Reduce(p.state, e)
	p.state = next

	for _, in := range intents {
		if in.Type == IntentSearchCommit && p.opts.Callbacks.OnSearchCommit != nil {
			p.opts.Callbacks.OnSearchCommit(in.Search)
		}
	}
	return p.view()
}

// Derivations returns how many times filtering and sorting have run.
func (p *LocalPipeline) Derivations() int { return p.derived }

func (p *LocalPipeline) view() View {
	sorted := p.sorted()
	total := TotalPages(len(sorted), p.state.Limit)
	page := clampPage(p.state.Page, total)
	start, end := bounds(page, p.state.Limit, len(sorted))
	rows := []cell.Row{}
	if end > start {
		rows = sorted[start:end:end]
	}

	return View{
		Mode:    ModeLocal,
		Rows:    rows,
		Columns: p.columns(),
		Sort:    p.state.Sort,
		Page:    NewPageMeta(page, p.state.Limit, len(sorted)),
		Search:  p.state.SearchDraft,
		Filters: maps.Clone(p.state.Filters),
	}
}

func (p *LocalPipeline) columns() []string {
	if !p.cols.valid || !sameRows(p.cols.rows, p.input.Rows) {
		p.cols = columnCache{
			valid: true,
			rows:  p.input.Rows,
			cols:  cell.VisibleColumns(p.input.Rows, p.opts.ReservedPrefix),
		}
	}
	return p.cols.cols
}

// sorted returns the filtered, sorted rows, recomputing only when an input of
// the derivation changed.
func (p *LocalPipeline) sorted() []cell.Row {
	m := &p.memo
	if m.valid &&
		sameRows(m.rows, p.input.Rows) &&
		m.search == p.state.SearchTerm &&
		m.sort == p.state.Sort &&
		maps.EqualFunc(m.filters, p.state.Filters, cell.Equal) {
		return m.result
	}

	search := ""
	if p.opts.SearchEnabled {
		search = p.state.SearchTerm
	}
	filtered := predicate.Filter(p.input.Rows, predicate.Criteria{
		Columns: p.columns(),
		Search:  search,
		Filters: p.state.Filters,
	})

	result := filtered
	if p.state.Sort.Active() {
		result = p.cmp.SortRows(filtered, p.state.Sort.Column, p.state.Sort.direction())
	}

	*m = sortedCache{
		valid:   true,
		rows:    p.input.Rows,
		search:  p.state.SearchTerm,
		filters: p.state.Filters,
		sort:    p.state.Sort,
		result:  result,
	}
	p.derived++

	p.opts.Logger.Debug("table rows derived",
		"rows", len(p.input.Rows),
		"matched", len(filtered),
		"sort_column", p.state.Sort.Column,
		"sort_dir", p.state.Sort.Direction.String(),
	)
	return result
}

// sameRows compares row sets by identity, not content.
func sameRows(a, b []cell.Row) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
