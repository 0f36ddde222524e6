package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

var (
	errInstanceNotFound = errors.New("instance not found")
	errTooManyInstances = errors.New("too many instances")
)

// RowSource supplies rows for mounted tables. *core.Service implements it.
type RowSource interface {
	FetchAll(ctx context.Context, viewKey string) ([]cell.Row, error)
	FetchPage(ctx context.Context, viewKey string, q core.Query) (core.PageResult, error)
	PageSize(def core.ViewDefinition) int
}

// instance is one mounted table. Events for an instance are serialized by mu;
// the pipeline it owns is never touched concurrently.
type instance struct {
	id  string
	def core.ViewDefinition

	mu       sync.Mutex
	table    pipeline.TablePipeline
	rows     []cell.Row
	total    int
	query    core.Query
	stale    bool
	lastUsed time.Time
}

// mount builds a pipeline for def and loads its first page.
func mount(ctx context.Context, src RowSource, def core.ViewDefinition, table pipeline.Options) (*instance, error) {
	inst := &instance{
		id:  uuid.NewString(),
		def: def,
	}

	table.Mode = def.Mode
	table.SearchEnabled = def.SearchEnabled
	table.PageSize = src.PageSize(def)
	table.Renderers = def.Renderers

	if def.Mode == pipeline.ModeDelegated {
		inst.query = core.Query{Sort: def.DefaultSort, Page: 1, Limit: table.PageSize}
		table.Callbacks = inst.callbacks()
		inst.table = pipeline.New(table)
		if err := inst.refresh(ctx, src); err != nil {
			return nil, err
		}
		inst.table.Render(inst.input())
		return inst, nil
	}

	rows, err := src.FetchAll(ctx, def.Info.Key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", def.Info.Key, err)
	}
	inst.rows = rows
	inst.table = pipeline.New(table)
	inst.table.Render(inst.input())
	return inst, nil
}

// callbacks fold forwarded intents into the instance query. The fetch
// itself happens after the event has been dispatched.
func (inst *instance) callbacks() pipeline.Callbacks {
	apply := func(in pipeline.Intent) {
		inst.query = inst.query.Apply(in)
		inst.stale = true
	}
	return pipeline.Callbacks{
		OnSearchCommit: func(term string) {
			apply(pipeline.Intent{Type: pipeline.IntentSearchCommit, Search: term})
		},
		OnColumnFilterChange: func(column string, v cell.Value) {
			apply(pipeline.Intent{Type: pipeline.IntentFilterChange, Column: column, Value: v})
		},
		OnSortChange: func(s pipeline.SortState) {
			apply(pipeline.Intent{Type: pipeline.IntentSortChange, Sort: s})
		},
		OnPageChange: func(page int) {
			apply(pipeline.Intent{Type: pipeline.IntentPageChange, Page: page})
		},
		OnLimitChange: func(limit int) {
			apply(pipeline.Intent{Type: pipeline.IntentLimitChange, Limit: limit})
		},
	}
}

// dispatch applies events in order and, in Delegated mode, re-supplies the
// page the collaborator asked for. A search draft equal to the current one
// is skipped.
func (inst *instance) dispatch(ctx context.Context, src RowSource, events ...pipeline.Event) (pipeline.View, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	var view pipeline.View
	dispatched := false
	for _, e := range events {
		if e.Type == pipeline.EventSearchInput && e.Text == inst.table.State().SearchDraft {
			continue
		}
		view = inst.table.Dispatch(e)
		dispatched = true
	}
	if !dispatched {
		view = inst.table.Render(inst.input())
	}
	if !inst.stale {
		return view, nil
	}
	if err := inst.refresh(ctx, src); err != nil {
		return view, err
	}
	return inst.table.Render(inst.input()), nil
}

// view re-renders the stored input without changing state.
func (inst *instance) view() pipeline.View {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.table.Render(inst.input())
}

func (inst *instance) display(row cell.Row, column string) cell.Value {
	return inst.table.Display(row, column)
}

// refresh fetches the page described by the query. Callers hold mu, except
// during mount.
func (inst *instance) refresh(ctx context.Context, src RowSource) error {
	res, err := src.FetchPage(ctx, inst.def.Info.Key, inst.query)
	if err != nil {
		return fmt.Errorf("fetch %s page %d: %w", inst.def.Info.Key, inst.query.Page, err)
	}
	inst.query.Page = res.Page
	inst.query.Limit = res.Limit
	inst.stale = false
	inst.rows, inst.total = res.Rows, res.TotalCount
	return nil
}

// input is what the pipeline is rendered from. Local pipelines read only the
// rows and filter specs.
func (inst *instance) input() pipeline.Input {
	return pipeline.Input{
		Rows:       inst.rows,
		Filters:    inst.filters(),
		TotalCount: inst.total,
		Page:       inst.query.Page,
		Limit:      inst.query.Limit,
	}
}

// filters returns the view's filter specs carrying the query's values.
func (inst *instance) filters() []pipeline.FilterSpec {
	specs := make([]pipeline.FilterSpec, len(inst.def.Filters))
	for i, spec := range inst.def.Filters {
		spec.CurrentValue = inst.query.Filters[spec.Column]
		specs[i] = spec
	}
	return specs
}

// instanceStore holds mounted tables keyed by id. Entries idle for longer
// than ttl are dropped.
type instanceStore struct {
	mu    sync.Mutex
	items map[string]*instance
	ttl   time.Duration
	max   int
	now   func() time.Time
}

func newInstanceStore(ttl time.Duration, max int) *instanceStore {
	return &instanceStore{
		items: make(map[string]*instance),
		ttl:   ttl,
		max:   max,
		now:   time.Now,
	}
}

func (st *instanceStore) add(inst *instance) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked()
	if st.max > 0 && len(st.items) >= st.max {
		return fmt.Errorf("mount %s: %w", inst.def.Info.Key, errTooManyInstances)
	}
	inst.lastUsed = st.now()
	st.items[inst.id] = inst
	return nil
}

func (st *instanceStore) get(id string) (*instance, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	inst, ok := st.items[id]
	if !ok {
		return nil, errInstanceNotFound
	}
	now := st.now()
	if st.ttl > 0 && now.Sub(inst.lastUsed) > st.ttl {
		delete(st.items, id)
		return nil, errInstanceNotFound
	}
	inst.lastUsed = now
	return inst, nil
}

func (st *instanceStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.items[id]; !ok {
		return false
	}
	delete(st.items, id)
	return true
}

func (st *instanceStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.items)
}

// sweep drops expired instances and reports how many were removed.
func (st *instanceStore) sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked()
}

func (st *instanceStore) sweepLocked() int {
	if st.ttl <= 0 {
		return 0
	}
	now := st.now()
	removed := 0
	for id, inst := range st.items {
		if now.Sub(inst.lastUsed) > st.ttl {
			delete(st.items, id)
			removed++
		}
	}
	return removed
}

// run sweeps on every interval until ctx is done.
func (st *instanceStore) run(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.sweep(); n > 0 {
				logger.Debug("expired table instances removed", "count", n, "remaining", st.len())
			}
		}
	}
}
