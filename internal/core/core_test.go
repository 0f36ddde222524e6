package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

func testView() ViewDefinition {
	return ViewDefinition{
		Info: ViewInfo{Key: "test_hostels", Group: "Campus", Label: "Hostels"},
		FieldSpecs: []FieldSpec{
			{Name: "Name", Type: FieldText},
			{Name: "Status", DBColumn: "state", Type: FieldEnum, EnumValues: []string{"open", "closed"}},
			{Name: "Room", Type: FieldNumeric},
			{Name: "Opened", Type: FieldDate},
		},
		Filters: []pipeline.FilterSpec{
			{Column: "Status", Kind: pipeline.FilterDropdown},
		},
		Mode: pipeline.ModeDelegated,
	}
}

// withRegistry registers defs for the duration of the test.
func withRegistry(t *testing.T, defs ...ViewDefinition) {
	t.Helper()
	Clear()
	for _, d := range defs {
		Register(d)
	}
	t.Cleanup(Clear)
}

// ============================================================================
// Registry
// ============================================================================

func TestRegister_Defaults(t *testing.T) {
	withRegistry(t, testView())

	def, ok := Get("test_hostels")
	if !ok {
		t.Fatal("Get() did not find registered view")
	}
	if got := strings.Join(def.Info.Columns, ","); got != "Name,Status,Room,Opened" {
		t.Errorf("Columns = %q", got)
	}
	if def.Info.Table != "test_hostels" {
		t.Errorf("Table = %q, want key", def.Info.Table)
	}
	if def.Info.IDColumn != "id" {
		t.Errorf("IDColumn = %q, want id", def.Info.IDColumn)
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	withRegistry(t, testView())

	defer func() {
		if recover() == nil {
			t.Error("Register() did not panic on duplicate key")
		}
	}()
	Register(testView())
}

func TestRegister_PanicsOnUnknownFilterColumn(t *testing.T) {
	withRegistry(t)

	def := testView()
	def.Filters = append(def.Filters, pipeline.FilterSpec{Column: "Warden"})

	defer func() {
		if recover() == nil {
			t.Error("Register() did not panic on filter over unknown column")
		}
	}()
	Register(def)
}

func TestRegistry_Ordering(t *testing.T) {
	a := testView()
	b := testView()
	b.Info.Key, b.Info.Group = "courses", "Academics"
	c := testView()
	c.Info.Key = "menus"
	withRegistry(t, a, b, c)

	var keys []string
	for _, d := range All() {
		keys = append(keys, d.Info.Key)
	}
	if got := strings.Join(keys, ","); got != "courses,menus,test_hostels" {
		t.Errorf("All() order = %q", got)
	}
	if got := strings.Join(Groups(), ","); got != "Academics,Campus" {
		t.Errorf("Groups() = %q", got)
	}
	if got := len(ByGroup("Campus")); got != 2 {
		t.Errorf("len(ByGroup(Campus)) = %d, want 2", got)
	}
	if ViewCount() != 3 {
		t.Errorf("ViewCount() = %d, want 3", ViewCount())
	}
}

func TestLookup_UnknownView(t *testing.T) {
	withRegistry(t)

	_, err := Lookup("nope")
	if !errors.Is(err, ErrUnknownView) {
		t.Errorf("Lookup() error = %v, want ErrUnknownView", err)
	}
}

func TestViewDefinition_DBColumn(t *testing.T) {
	def := testView()

	if col, err := def.DBColumn("status"); err != nil || col != "state" {
		t.Errorf("DBColumn(status) = %q, %v", col, err)
	}
	if _, err := def.DBColumn("Warden"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("DBColumn(Warden) error = %v, want ErrUnknownColumn", err)
	}
}

// ============================================================================
// Query folding
// ============================================================================

func TestQuery_Apply(t *testing.T) {
	q := Query{Page: 4, Limit: 10}

	q = q.Apply(pipeline.Intent{Type: pipeline.IntentPageChange, Page: 3})
	if q.Page != 3 {
		t.Errorf("page change: Page = %d", q.Page)
	}

	q = q.Apply(pipeline.Intent{Type: pipeline.IntentFilterChange, Column: "Status", Value: cell.String("open")})
	if q.Page != 1 || !cell.Equal(q.Filters["Status"], cell.String("open")) {
		t.Errorf("filter change: %+v", q)
	}

	prev := q.Filters
	q = q.Apply(pipeline.Intent{Type: pipeline.IntentFilterChange, Column: "Status", Value: cell.String("")})
	if _, ok := q.Filters["Status"]; ok {
		t.Errorf("empty filter value was kept")
	}
	if _, ok := prev["Status"]; !ok {
		t.Errorf("Apply mutated the previous filter map")
	}

	q.Page = 5
	q = q.Apply(pipeline.Intent{Type: pipeline.IntentSearchCommit, Search: "maple"})
	if q.Search != "maple" || q.Page != 1 {
		t.Errorf("search commit: %+v", q)
	}

	sort := pipeline.SortState{Column: "Room", Direction: pipeline.SortDescending}
	q.Page = 2
	q = q.Apply(pipeline.Intent{Type: pipeline.IntentSortChange, Sort: sort})
	if q.Sort != sort || q.Page != 2 {
		t.Errorf("sort change: %+v", q)
	}

	q = q.Apply(pipeline.Intent{Type: pipeline.IntentLimitChange, Limit: 50})
	if q.Limit != 50 || q.Page != 1 {
		t.Errorf("limit change: %+v", q)
	}
}

// ============================================================================
// Service
// ============================================================================

type fakeDB struct {
	count   int64
	rows    [][]any
	queries []string
	args    [][]any
}

func (f *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return &fakeRows{rows: f.rows, i: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return fakeRow{n: f.count}
}

type fakeRow struct{ n int64 }

func (r fakeRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.n
	return nil
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { r.i++; return r.i < len(r.rows) }
func (r *fakeRows) Scan(...any) error                            { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.i], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func TestService_FetchPage(t *testing.T) {
	withRegistry(t, testView())

	opened := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	db := &fakeDB{
		count: 25,
		rows: [][]any{
			{int64(21), "Maple", "open", pgtype.Numeric{}, opened},
			{int64(22), "Oak", nil, int32(12), nil},
		},
	}
	svc := NewService(db, Limits{DefaultPageSize: 10, MaxPageSize: 100}, nil)

	res, err := svc.FetchPage(context.Background(), "test_hostels", Query{
		Search:  "a",
		Filters: map[string]cell.Value{"Status": cell.String("open")},
		Sort:    pipeline.SortState{Column: "Room", Direction: pipeline.SortDescending},
		Page:    9,
	})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if res.Page != 3 || res.Limit != 10 || res.TotalCount != 25 {
		t.Errorf("result meta = page %d limit %d total %d", res.Page, res.Limit, res.TotalCount)
	}

	wantCount := `SELECT COUNT(*) FROM "test_hostels" WHERE ("name"::text ILIKE $1 OR "state"::text ILIKE $1 OR "room"::text ILIKE $1 OR "opened"::text ILIKE $1) AND "state"::text ILIKE $2`
	if db.queries[0] != wantCount {
		t.Errorf("count query =\n%s\nwant\n%s", db.queries[0], wantCount)
	}

	if !strings.HasSuffix(db.queries[1], `ORDER BY "room" DESC NULLS LAST, "id" ASC LIMIT $3 OFFSET $4`) {
		t.Errorf("select query = %s", db.queries[1])
	}
	if args := db.args[1]; args[2] != 10 || args[3] != 20 {
		t.Errorf("limit/offset args = %v, want 10 and 20", args[2:])
	}

	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(res.Rows))
	}
	first := res.Rows[0]
	if got := strings.Join(first.Keys(), ","); got != "_id,Name,Status,Room,Opened" {
		t.Errorf("row keys = %q", got)
	}
	if first.Get("Opened").Kind() != cell.KindDate {
		t.Errorf("Opened kind = %s, want date", first.Get("Opened").Kind())
	}
	if !res.Rows[1].Get("Status").IsNull() {
		t.Errorf("NULL column = %v, want null cell", res.Rows[1].Get("Status"))
	}
}

func TestService_FetchPage_ClampsLimit(t *testing.T) {
	withRegistry(t, testView())

	db := &fakeDB{count: 0}
	svc := NewService(db, Limits{DefaultPageSize: 10, MaxPageSize: 50}, nil)

	res, err := svc.FetchPage(context.Background(), "test_hostels", Query{Limit: 1000, Page: 2})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if res.Limit != 50 || res.Page != 1 {
		t.Errorf("limit %d page %d, want 50 and 1", res.Limit, res.Page)
	}
	if strings.Contains(db.queries[0], "WHERE") {
		t.Errorf("empty query produced a WHERE clause: %s", db.queries[0])
	}
	if !strings.Contains(db.queries[1], `ORDER BY "id" ASC LIMIT $1 OFFSET $2`) {
		t.Errorf("select query = %s", db.queries[1])
	}
}

func TestService_FetchAll(t *testing.T) {
	def := testView()
	def.Mode = pipeline.ModeLocal
	def.DefaultSort = pipeline.SortState{Column: "Name", Direction: pipeline.SortAscending}
	withRegistry(t, def)

	db := &fakeDB{rows: [][]any{{int64(1), "Maple", "open", int64(3), nil}}}
	svc := NewService(db, Limits{MaxLocalRows: 5000}, nil)

	rows, err := svc.FetchAll(context.Background(), "test_hostels")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d", len(rows))
	}

	want := `SELECT "id", "name", "state", "room", "opened" FROM "test_hostels" ORDER BY "name" ASC NULLS FIRST, "id" ASC LIMIT $1`
	if db.queries[0] != want {
		t.Errorf("query =\n%s\nwant\n%s", db.queries[0], want)
	}
}

func TestService_UnknownView(t *testing.T) {
	withRegistry(t)
	svc := NewService(&fakeDB{}, Limits{}, nil)

	if _, err := svc.FetchAll(context.Background(), "nope"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("FetchAll() error = %v", err)
	}
	if _, err := svc.FetchPage(context.Background(), "nope", Query{}); !errors.Is(err, ErrUnknownView) {
		t.Errorf("FetchPage() error = %v", err)
	}
}

func TestService_PageSize(t *testing.T) {
	svc := NewService(&fakeDB{}, Limits{DefaultPageSize: 20, MaxPageSize: 100}, nil)

	if got := svc.PageSize(testView()); got != 20 {
		t.Errorf("default PageSize = %d, want 20", got)
	}
	def := testView()
	def.PageSize = 500
	if got := svc.PageSize(def); got != 100 {
		t.Errorf("oversized PageSize = %d, want 100", got)
	}
}
