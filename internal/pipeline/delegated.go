package pipeline

import (
	"github.com/JonMunkholm/dashboard/internal/cell"
)

// DelegatedPipeline renders rows that an external source has already
// filtered, sorted and paged. It keeps only the search draft and the sort
// indicator; every change is forwarded through the configured callbacks and
// the caller is expected to re-render with fresh rows and totals.
type DelegatedPipeline struct {
	opts  Options
	state State
	input Input
	cols  columnCache
}

// NewDelegated returns a pipeline that forwards every intent.
func NewDelegated(opts Options) *DelegatedPipeline {
	opts = opts.withDefaults()
	return &DelegatedPipeline{
		opts:  opts,
		state: NewState(opts.PageSize),
	}
}

func (p *DelegatedPipeline) Mode() Mode { return ModeDelegated }

func (p *DelegatedPipeline) State() State { return p.state }

func (p *DelegatedPipeline) Display(row cell.Row, column string) cell.Value {
	return display(p.opts.Renderers, row, column)
}

// Render stores the caller's page and returns it unchanged.
func (p *DelegatedPipeline) Render(in Input) View {
	p.input = in
	return p.view()
}

// Dispatch forwards e to the callbacks. Rows are never touched; only the
// search draft and the sort indicator change locally.
func (p *DelegatedPipeline) Dispatch(e Event) View {
	meta := p.meta()
	e, ok := resolveNav(e, meta.Page, meta.TotalPages)
	if !ok {
		return p.view()
	}

	// Reduce against the caller's pagination so page intents are absolute.
	s := p.state
	s.Page, s.Limit = meta.Page, meta.Limit
	next, intents := Reduce(s, e)

	p.state.SearchDraft = next.SearchDraft
	p.state.SearchTerm = next.SearchTerm
	p.state.Sort = next.Sort

	for _, in := range intents {
		p.forward(in)
	}
	return p.view()
}

func (p *DelegatedPipeline) forward(in Intent) {
	cb := p.opts.Callbacks
	switch in.Type {
	case IntentSearchCommit:
		if cb.OnSearchCommit != nil {
			cb.OnSearchCommit(in.Search)
		}
	case IntentFilterChange:
		if spec, ok := p.spec(in.Column); ok && spec.OnChange != nil {
			spec.OnChange(in.Value)
			return
		}
		if cb.OnColumnFilterChange != nil {
			cb.OnColumnFilterChange(in.Column, in.Value)
		}
	case IntentSortChange:
		if cb.OnSortChange != nil {
			cb.OnSortChange(in.Sort)
		}
	case IntentPageChange:
		if cb.OnPageChange != nil {
			cb.OnPageChange(in.Page)
		}
	case IntentLimitChange:
		if cb.OnLimitChange != nil {
			cb.OnLimitChange(in.Limit)
		}
	}
}

func (p *DelegatedPipeline) spec(column string) (FilterSpec, bool) {
	for _, s := range p.input.Filters {
		if s.Column == column {
			return s, true
		}
	}
	return FilterSpec{}, false
}

func (p *DelegatedPipeline) meta() PageMeta {
	limit := p.input.Limit
	if limit <= 0 {
		limit = p.opts.PageSize
	}
	return NewPageMeta(p.input.Page, limit, p.input.TotalCount)
}

func (p *DelegatedPipeline) view() View {
	if !p.cols.valid || !sameRows(p.cols.rows, p.input.Rows) {
		p.cols = columnCache{
			valid: true,
			rows:  p.input.Rows,
			cols:  cell.VisibleColumns(p.input.Rows, p.opts.ReservedPrefix),
		}
	}

	filters := make(map[string]cell.Value, len(p.input.Filters))
	for _, s := range p.input.Filters {
		if !s.CurrentValue.IsNull() {
			filters[s.Column] = s.CurrentValue
		}
	}

	rows := p.input.Rows
	if rows == nil {
		rows = []cell.Row{}
	}

	return View{
		Mode:    ModeDelegated,
		Rows:    rows,
		Columns: p.cols.cols,
		Sort:    p.state.Sort,
		Page:    p.meta(),
		Search:  p.state.SearchDraft,
		Filters: filters,
	}
}
