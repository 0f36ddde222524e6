package pipeline

import (
	"fmt"
	"testing"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/predicate"
)

func numbered(n int) []cell.Row {
	rows := make([]cell.Row, n)
	for i := range rows {
		rows[i] = cell.NewRow(
			cell.F("_id", i+1),
			cell.F("n", i+1),
			cell.F("name", fmt.Sprintf("row %02d", i+1)),
		)
	}
	return rows
}

func ints(t *testing.T, rows []cell.Row, column string) []int {
	t.Helper()
	out := make([]int, len(rows))
	for i, r := range rows {
		f, ok := r.Get(column).Num()
		if !ok {
			t.Fatalf("row %d column %q is %s, want number", i, column, r.Get(column).Kind())
		}
		out[i] = int(f)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// Reducer
// ============================================================================

func TestSortState_Toggle(t *testing.T) {
	var s SortState

	s = s.Toggle("name")
	if s != (SortState{Column: "name", Direction: SortAscending}) {
		t.Fatalf("first click = %+v, want name asc", s)
	}
	s = s.Toggle("name")
	if s.Direction != SortDescending {
		t.Fatalf("second click direction = %s, want desc", s.Direction)
	}
	s = s.Toggle("name")
	if s.Active() {
		t.Fatalf("third click = %+v, want inactive", s)
	}

	s = SortState{Column: "name", Direction: SortDescending}.Toggle("date")
	if s != (SortState{Column: "date", Direction: SortAscending}) {
		t.Errorf("other column = %+v, want date asc", s)
	}
}

func TestReduce_SearchCommitGating(t *testing.T) {
	s := NewState(10)

	for _, text := range []string{"m", "ma", "map"} {
		var intents []Intent
		s, intents = Reduce(s, SearchInput(text))
		if len(intents) != 0 {
			t.Fatalf("typing %q emitted %v", text, intents)
		}
	}
	if s.SearchDraft != "map" || s.SearchTerm != "" {
		t.Fatalf("draft=%q term=%q, want draft only", s.SearchDraft, s.SearchTerm)
	}

	s, intents := Reduce(s, SearchKey("a"))
	if len(intents) != 0 {
		t.Fatalf("non-enter key emitted %v", intents)
	}

	s, intents = Reduce(s, SearchKey(KeyEnter))
	if len(intents) != 1 || intents[0].Type != IntentSearchCommit || intents[0].Search != "map" {
		t.Fatalf("enter emitted %v, want one commit of %q", intents, "map")
	}

	s, intents = Reduce(s, SearchInput(""))
	if len(intents) != 1 || intents[0].Search != "" {
		t.Fatalf("clearing emitted %v, want one empty commit", intents)
	}

	_, intents = Reduce(s, SearchInput(""))
	if len(intents) != 0 {
		t.Errorf("clearing an empty draft emitted %v", intents)
	}

	_, intents = Reduce(State{SearchDraft: "x"}, SearchBlur())
	if len(intents) != 1 || intents[0].Search != "x" {
		t.Errorf("blur emitted %v, want commit of %q", intents, "x")
	}
}

func TestReduce_FilterChangeCopiesMap(t *testing.T) {
	before := NewState(10)
	before.Filters = map[string]cell.Value{"city": cell.String("oslo")}
	before.Page = 4

	after, intents := Reduce(before, FilterChange("status", cell.String("open")))

	if len(before.Filters) != 1 {
		t.Errorf("original filters mutated: %v", before.Filters)
	}
	if len(after.Filters) != 2 {
		t.Errorf("after filters = %v, want 2 entries", after.Filters)
	}
	if after.Page != 1 {
		t.Errorf("Page = %d, want reset to 1", after.Page)
	}
	if len(intents) != 1 || intents[0].Column != "status" {
		t.Errorf("intents = %v", intents)
	}
}

func TestReduce_LimitChangeResetsPage(t *testing.T) {
	s := NewState(10)
	s.Page = 3

	s, intents := Reduce(s, LimitChange(25))
	if s.Limit != 25 || s.Page != 1 {
		t.Errorf("state = limit %d page %d, want 25 and 1", s.Limit, s.Page)
	}
	if len(intents) != 2 || intents[0].Type != IntentLimitChange || intents[1].Type != IntentPageChange {
		t.Errorf("intents = %v, want limit_change then page_change", intents)
	}

	_, intents = Reduce(s, LimitChange(0))
	if len(intents) != 0 {
		t.Errorf("zero limit emitted %v", intents)
	}
}

// ============================================================================
// Pagination arithmetic
// ============================================================================

func TestNewPageMeta_Boundary(t *testing.T) {
	tests := []struct {
		page     int
		wantPrev bool
		wantNext bool
	}{
		{1, false, true},
		{2, true, true},
		{3, true, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			m := NewPageMeta(tt.page, 10, 25)
			if m.TotalPages != 3 {
				t.Errorf("TotalPages = %d, want 3", m.TotalPages)
			}
			if m.HasPrev != tt.wantPrev || m.HasNext != tt.wantNext {
				t.Errorf("HasPrev=%v HasNext=%v, want %v %v", m.HasPrev, m.HasNext, tt.wantPrev, tt.wantNext)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.count, tt.limit); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.count, tt.limit, got, tt.want)
		}
	}
}

// ============================================================================
// Local mode
// ============================================================================

func TestLocal_Pagination(t *testing.T) {
	p := NewLocal(Options{PageSize: 10})
	v := p.Render(Input{Rows: numbered(25)})

	if v.Page.TotalPages != 3 || v.Page.TotalCount != 25 {
		t.Fatalf("page meta = %+v", v.Page)
	}
	if len(v.Rows) != 10 {
		t.Fatalf("len(Rows) = %d, want 10", len(v.Rows))
	}

	p.Dispatch(NextPage())
	v = p.Dispatch(NextPage())
	if v.Page.Page != 3 || v.Page.HasNext {
		t.Fatalf("page meta = %+v, want last page", v.Page)
	}
	if got := ints(t, v.Rows, "n"); !equalInts(got, []int{21, 22, 23, 24, 25}) {
		t.Errorf("last page = %v", got)
	}

	v = p.Dispatch(NextPage())
	if v.Page.Page != 3 {
		t.Errorf("next past the end moved to page %d", v.Page.Page)
	}

	v = p.Dispatch(PageChange(9))
	if v.Page.Page != 3 {
		t.Errorf("out of range page change moved to page %d", v.Page.Page)
	}

	v = p.Dispatch(PrevPage())
	if v.Page.Page != 2 {
		t.Errorf("prev = page %d, want 2", v.Page.Page)
	}

	v = p.Dispatch(LimitChange(5))
	if v.Page.Page != 1 || v.Page.TotalPages != 5 {
		t.Errorf("after limit change = %+v, want page 1 of 5", v.Page)
	}
}

func TestLocal_PageChangeDoesNotRederive(t *testing.T) {
	rows := numbered(30)
	p := NewLocal(Options{PageSize: 10})

	p.Render(Input{Rows: rows})
	if p.Derivations() != 1 {
		t.Fatalf("Derivations() = %d after first render, want 1", p.Derivations())
	}

	p.Dispatch(PageChange(2))
	p.Dispatch(LimitChange(5))
	p.Dispatch(SearchInput("draft only"))
	p.Render(Input{Rows: rows})
	if p.Derivations() != 1 {
		t.Errorf("Derivations() = %d after paging, want 1", p.Derivations())
	}

	p.Dispatch(SortClick("n"))
	if p.Derivations() != 2 {
		t.Errorf("Derivations() = %d after sort, want 2", p.Derivations())
	}

	p.Render(Input{Rows: numbered(30)})
	if p.Derivations() != 3 {
		t.Errorf("Derivations() = %d after new rows, want 3", p.Derivations())
	}
}

func TestLocal_StageOrder(t *testing.T) {
	rows := []cell.Row{
		cell.NewRow(cell.F("x", 5), cell.F("keep", "y")),
		cell.NewRow(cell.F("x", 3), cell.F("keep", "n")),
		cell.NewRow(cell.F("x", 9), cell.F("keep", "y")),
		cell.NewRow(cell.F("x", 1), cell.F("keep", "n")),
		cell.NewRow(cell.F("x", 7), cell.F("keep", "y")),
		cell.NewRow(cell.F("x", 2), cell.F("keep", "y")),
	}

	p := NewLocal(Options{PageSize: 2})
	p.Render(Input{Rows: rows})
	p.Dispatch(FilterChange("keep", cell.String("y")))
	v := p.Dispatch(SortClick("x"))

	if got := ints(t, v.Rows, "x"); !equalInts(got, []int{2, 5}) {
		t.Errorf("first page = %v, want [2 5]", got)
	}

	// Same result computed by hand: filter, then sort, then slice.
	criteria := predicate.Criteria{Filters: map[string]cell.Value{"keep": cell.String("y")}}
	want := predicate.NewComparator(language.English).SortRows(predicate.Filter(rows, criteria), "x", predicate.Ascending)[:2]
	if !equalInts(ints(t, v.Rows, "x"), ints(t, want, "x")) {
		t.Errorf("pipeline disagrees with filter, sort, paginate")
	}

	v = p.Dispatch(NextPage())
	if got := ints(t, v.Rows, "x"); !equalInts(got, []int{7, 9}) {
		t.Errorf("second page = %v, want [7 9]", got)
	}
	if v.Page.TotalCount != 4 {
		t.Errorf("TotalCount = %d, want filtered count 4", v.Page.TotalCount)
	}
}

func TestLocal_SearchCommit(t *testing.T) {
	commits := 0
	p := NewLocal(Options{
		SearchEnabled: true,
		Callbacks:     Callbacks{OnSearchCommit: func(string) { commits++ }},
	})
	p.Render(Input{Rows: []cell.Row{
		cell.NewRow(cell.F("name", "Alpha")),
		cell.NewRow(cell.F("name", "Beta")),
	}})

	v := p.Dispatch(SearchInput("alp"))
	if len(v.Rows) != 2 || v.Search != "alp" {
		t.Fatalf("draft filtered rows: %d rows, search %q", len(v.Rows), v.Search)
	}
	if commits != 0 {
		t.Fatalf("commit fired while typing")
	}

	v = p.Dispatch(SearchKey(KeyEnter))
	if len(v.Rows) != 1 {
		t.Errorf("after commit len(Rows) = %d, want 1", len(v.Rows))
	}
	if commits != 1 {
		t.Errorf("commits = %d, want 1", commits)
	}

	v = p.Dispatch(SearchInput(""))
	if len(v.Rows) != 2 || commits != 2 {
		t.Errorf("clearing: %d rows, %d commits", len(v.Rows), commits)
	}
}

func TestLocal_SearchDisabled(t *testing.T) {
	p := NewLocal(Options{})
	p.Render(Input{Rows: []cell.Row{
		cell.NewRow(cell.F("name", "Alpha")),
		cell.NewRow(cell.F("name", "Beta")),
	}})
	p.Dispatch(SearchInput("alp"))
	v := p.Dispatch(SearchKey(KeyEnter))
	if len(v.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want search ignored", len(v.Rows))
	}
}

func TestLocal_Columns(t *testing.T) {
	p := NewLocal(Options{ReservedPrefix: DefaultReservedPrefix})

	v := p.Render(Input{Rows: numbered(3)})
	if len(v.Columns) != 2 || v.Columns[0] != "n" || v.Columns[1] != "name" {
		t.Errorf("Columns = %v, want [n name]", v.Columns)
	}

	v = p.Render(Input{})
	if len(v.Columns) != 0 || len(v.Rows) != 0 {
		t.Errorf("empty input: columns %v rows %d", v.Columns, len(v.Rows))
	}
	if v.Rows == nil {
		t.Errorf("Rows is nil, want empty slice")
	}
}

func TestLocal_Display(t *testing.T) {
	p := NewLocal(Options{Renderers: map[string]Renderer{
		"name": func(_ cell.Row, v cell.Value) cell.Value {
			return cell.String("<" + v.Text() + ">")
		},
	}})
	row := cell.NewRow(cell.F("name", "x"), cell.F("n", 1))

	if got := p.Display(row, "name").Text(); got != "<x>" {
		t.Errorf("Display(name) = %q", got)
	}
	if got := p.Display(row, "n").Text(); got != "1" {
		t.Errorf("Display(n) = %q", got)
	}
}

// ============================================================================
// Delegated mode
// ============================================================================

func TestDelegated_FilterChangeForwardsOnce(t *testing.T) {
	rows := numbered(3)
	var calls []cell.Value
	p := NewDelegated(Options{Callbacks: Callbacks{
		OnColumnFilterChange: func(column string, v cell.Value) {
			if column != "name" {
				t.Errorf("column = %q", column)
			}
			calls = append(calls, v)
		},
	}})
	p.Render(Input{Rows: rows, TotalCount: 25, Page: 1, Limit: 10})

	v := p.Dispatch(FilterChange("name", cell.String("row 01")))

	if len(calls) != 1 || !cell.Equal(calls[0], cell.String("row 01")) {
		t.Fatalf("callback calls = %v, want exactly one", calls)
	}
	if len(v.Rows) != 3 || &v.Rows[0] != &rows[0] {
		t.Errorf("rows changed synchronously")
	}
	if len(v.Filters) != 0 {
		t.Errorf("Filters = %v, want caller-owned (none)", v.Filters)
	}
}

func TestDelegated_SpecOnChangeTakesPrecedence(t *testing.T) {
	var specCalls, generic int
	p := NewDelegated(Options{Callbacks: Callbacks{
		OnColumnFilterChange: func(string, cell.Value) { generic++ },
	}})
	p.Render(Input{
		Rows: numbered(1),
		Filters: []FilterSpec{{
			Column:       "name",
			Kind:         FilterDropdown,
			CurrentValue: cell.String("row 01"),
			OnChange:     func(cell.Value) { specCalls++ },
		}},
	})

	v := p.Dispatch(FilterChange("name", cell.String("row 02")))
	if specCalls != 1 || generic != 0 {
		t.Errorf("spec calls = %d, generic calls = %d", specCalls, generic)
	}
	if !cell.Equal(v.Filters["name"], cell.String("row 01")) {
		t.Errorf("Filters[name] = %v, want caller's current value", v.Filters["name"])
	}
}

func TestDelegated_Pagination(t *testing.T) {
	var pages []int
	p := NewDelegated(Options{Callbacks: Callbacks{
		OnPageChange: func(page int) { pages = append(pages, page) },
	}})

	v := p.Render(Input{Rows: numbered(5), TotalCount: 25, Page: 3, Limit: 10})
	if v.Page.TotalPages != 3 || v.Page.HasNext || !v.Page.HasPrev {
		t.Fatalf("page meta = %+v", v.Page)
	}

	p.Dispatch(NextPage())
	if len(pages) != 0 {
		t.Fatalf("next on last page forwarded %v", pages)
	}

	v = p.Dispatch(PrevPage())
	if len(pages) != 1 || pages[0] != 2 {
		t.Errorf("pages = %v, want [2]", pages)
	}
	if v.Page.Page != 3 {
		t.Errorf("page = %d, want caller-owned 3", v.Page.Page)
	}
}

func TestDelegated_LimitFallsBackToPageSize(t *testing.T) {
	p := NewDelegated(Options{PageSize: 20})
	v := p.Render(Input{TotalCount: 41})
	if v.Page.Limit != 20 || v.Page.TotalPages != 3 || v.Page.Page != 1 {
		t.Errorf("page meta = %+v", v.Page)
	}
}

func TestDelegated_LimitChange(t *testing.T) {
	var limits, pages []int
	p := NewDelegated(Options{Callbacks: Callbacks{
		OnLimitChange: func(l int) { limits = append(limits, l) },
		OnPageChange:  func(pg int) { pages = append(pages, pg) },
	}})
	p.Render(Input{TotalCount: 100, Page: 4, Limit: 10})

	p.Dispatch(LimitChange(50))
	if len(limits) != 1 || limits[0] != 50 {
		t.Errorf("limits = %v", limits)
	}
	if len(pages) != 1 || pages[0] != 1 {
		t.Errorf("pages = %v, want reset to [1]", pages)
	}
}

func TestDelegated_SortIsVisualOnly(t *testing.T) {
	rows := []cell.Row{
		cell.NewRow(cell.F("x", 3)),
		cell.NewRow(cell.F("x", 1)),
	}
	var sorts []SortState
	p := NewDelegated(Options{Callbacks: Callbacks{
		OnSortChange: func(s SortState) { sorts = append(sorts, s) },
	}})
	p.Render(Input{Rows: rows, TotalCount: 2})

	v := p.Dispatch(SortClick("x"))
	if v.Sort != (SortState{Column: "x", Direction: SortAscending}) {
		t.Errorf("Sort = %+v", v.Sort)
	}
	if got := ints(t, v.Rows, "x"); !equalInts(got, []int{3, 1}) {
		t.Errorf("rows reordered locally: %v", got)
	}
	if len(sorts) != 1 {
		t.Errorf("sort callbacks = %d, want 1", len(sorts))
	}
}

func TestDelegated_SearchCommitGating(t *testing.T) {
	var terms []string
	p := NewDelegated(Options{Callbacks: Callbacks{
		OnSearchCommit: func(s string) { terms = append(terms, s) },
	}})
	p.Render(Input{})

	p.Dispatch(SearchInput("h"))
	p.Dispatch(SearchInput("ho"))
	if len(terms) != 0 {
		t.Fatalf("typing committed %v", terms)
	}
	p.Dispatch(SearchBlur())
	if len(terms) != 1 || terms[0] != "ho" {
		t.Errorf("terms = %v, want [ho]", terms)
	}
}

func TestDelegated_NilCallbacksAreInert(t *testing.T) {
	p := NewDelegated(Options{})
	p.Render(Input{Rows: numbered(10), TotalCount: 30, Page: 2, Limit: 10})

	events := []Event{
		SearchInput("x"), SearchKey(KeyEnter), SearchBlur(),
		FilterChange("name", cell.String("x")),
		SortClick("name"), PageChange(3), PrevPage(), NextPage(), LimitChange(5),
	}
	for _, e := range events {
		v := p.Dispatch(e)
		if len(v.Rows) != 10 {
			t.Errorf("%s changed rows", e.Type)
		}
	}
}

// ============================================================================
// Construction
// ============================================================================

func TestNew_SelectsMode(t *testing.T) {
	if _, ok := New(Options{}).(*LocalPipeline); !ok {
		t.Errorf("New(local) did not return *LocalPipeline")
	}
	if p := New(Options{Mode: ModeDelegated}); p.Mode() != ModeDelegated {
		t.Errorf("New(delegated).Mode() = %s", p.Mode())
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"local": ModeLocal, "Delegated": ModeDelegated, "": ModeLocal} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseMode("hybrid"); err == nil {
		t.Errorf("ParseMode(hybrid) succeeded")
	}
}

func TestFilterKind_Coerce(t *testing.T) {
	v := FilterDate.Coerce(cell.String("2024-03-15"))
	if v.Kind() != cell.KindDate {
		t.Errorf("date coerce kind = %s", v.Kind())
	}

	v = FilterMultiSelect.Coerce(cell.String("open"))
	if v.Kind() != cell.KindSequence || v.Len() != 1 {
		t.Errorf("multiselect coerce = %v", v)
	}

	v = FilterDateRange.Coerce(cell.Mapping(map[string]cell.Value{
		cell.StartDateKey: cell.String("2024-01-01"),
		cell.EndDateKey:   cell.String(""),
	}))
	start, ok := v.Field(cell.StartDateKey)
	if !ok || start.Kind() != cell.KindDate {
		t.Errorf("range start = %v", start)
	}
	if _, ok := v.Field(cell.EndDateKey); ok {
		t.Errorf("empty end bound was kept")
	}

	v = FilterSearch.Coerce(cell.String("2024-03-15"))
	if v.Kind() != cell.KindString {
		t.Errorf("search coerce changed kind to %s", v.Kind())
	}
}
