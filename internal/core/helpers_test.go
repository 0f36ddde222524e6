package core

import (
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/dashboard/internal/cell"
)

// ============================================================================
// WhereBuilder Tests
// ============================================================================

func TestNewWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()

	if wb == nil {
		t.Fatal("NewWhereBuilder returned nil")
	}
	if wb.argIndex != 1 {
		t.Errorf("expected argIndex to be 1, got %d", wb.argIndex)
	}
	if len(wb.conditions) != 0 {
		t.Errorf("expected empty conditions, got %d", len(wb.conditions))
	}
}

func TestWhereBuilder_Build_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	whereClause, args := wb.Build()

	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestWhereBuilder_Add_MultipleConditions(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("status", "active")
	wb.Add("type", "")
	wb.Add("room", nil)
	wb.Add("floor", 2)

	whereClause, args := wb.Build()

	expectedClause := " WHERE status = $1 AND floor = $2"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 2 || args[0] != "active" || args[1] != 2 {
		t.Errorf("expected args [active 2], got %v", args)
	}
}

func TestWhereBuilder_NextArgIndex(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddSearch("x", []string{"a", "b", "c"})
	wb.AddFilter("d", cell.String("y"))

	if got := wb.NextArgIndex(); got != 3 {
		t.Errorf("NextArgIndex() = %d, want 3", got)
	}
}

func TestWhereBuilder_AddSearch(t *testing.T) {
	tests := []struct {
		name       string
		term       string
		columns    []string
		wantClause string
		wantArg    string
	}{
		{
			name:       "empty term skipped",
			term:       "",
			columns:    []string{"name"},
			wantClause: "",
		},
		{
			name:       "no columns skipped",
			term:       "x",
			wantClause: "",
		},
		{
			name:       "single column",
			term:       "maple",
			columns:    []string{"hostel_name"},
			wantClause: ` WHERE ("hostel_name"::text ILIKE $1)`,
			wantArg:    "%maple%",
		},
		{
			name:       "columns share one argument",
			term:       "ann",
			columns:    []string{"student", "course"},
			wantClause: ` WHERE ("student"::text ILIKE $1 OR "course"::text ILIKE $1)`,
			wantArg:    "%ann%",
		},
		{
			name:       "wildcards escaped",
			term:       "50%_off",
			columns:    []string{"note"},
			wantClause: ` WHERE ("note"::text ILIKE $1)`,
			wantArg:    `%50\%\_off%`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddSearch(tt.term, tt.columns)

			gotClause, gotArgs := wb.Build()
			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if tt.wantArg != "" {
				if len(gotArgs) != 1 || gotArgs[0] != tt.wantArg {
					t.Errorf("args = %v, want [%s]", gotArgs, tt.wantArg)
				}
			}
		})
	}
}

func TestWhereBuilder_AddFilter(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name       string
		filter     cell.Value
		wantClause string
		wantArgs   int
	}{
		{"null skipped", cell.Null(), "", 0},
		{"empty string skipped", cell.String(""), "", 0},
		{"scalar substring", cell.String("open"), ` WHERE "status"::text ILIKE $1`, 1},
		{"single day", cell.Date(end), ` WHERE "status"::date = $1::date`, 1},
		{"multi select", cell.Strings("Open", "closed"), ` WHERE lower("status"::text) = ANY($1)`, 1},
		{
			"closed range",
			cell.DateRange(cell.Date(start), cell.Date(end)),
			` WHERE "status" >= $1 AND "status" <= $2`,
			2,
		},
		{
			"open ended range",
			cell.DateRange(cell.Null(), cell.Date(end)),
			` WHERE "status" <= $1`,
			1,
		},
		{
			"unparseable range bounds",
			cell.DateRange(cell.String("soon"), cell.Null()),
			` WHERE "status" IS NOT NULL`,
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddFilter("status", tt.filter)

			gotClause, gotArgs := wb.Build()
			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if len(gotArgs) != tt.wantArgs {
				t.Errorf("args count = %d, want %d", len(gotArgs), tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilder_AddFilter_Args(t *testing.T) {
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

	wb := NewWhereBuilder()
	wb.AddFilter("due", cell.DateRange(cell.Null(), cell.Date(end)))
	wb.AddFilter("tags", cell.Strings("Open", "closed"))
	wb.AddFilter("day", cell.String("2024-03-15"))
	_, args := wb.Build()

	to, ok := args[0].(time.Time)
	if !ok || !to.Equal(cell.EndOfDay(end)) {
		t.Errorf("range end arg = %v, want end of day", args[0])
	}
	labels, ok := args[1].([]string)
	if !ok || len(labels) != 2 || labels[0] != "open" || labels[1] != "closed" {
		t.Errorf("multi arg = %v, want lower-cased labels", args[1])
	}
	// A date string is a scalar filter, matched as text.
	if args[2] != "%2024-03-15%" {
		t.Errorf("scalar arg = %v", args[2])
	}
}

func TestWhereBuilder_AddFilters_UnknownColumn(t *testing.T) {
	def := testView()

	wb := NewWhereBuilder()
	wb.AddFilters(def, map[string]cell.Value{
		"Status":  cell.String("open"),
		"Missing": cell.String("x"),
		"Room":    cell.Null(),
	})

	gotClause, gotArgs := wb.Build()
	want := ` WHERE FALSE AND "state"::text ILIKE $1`
	if gotClause != want {
		t.Errorf("clause = %q, want %q", gotClause, want)
	}
	if len(gotArgs) != 1 {
		t.Errorf("args = %v", gotArgs)
	}
}

// ============================================================================
// Identifier Helpers
// ============================================================================

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"simple", `"simple"`},
		{"with space", `"with space"`},
		{`has"quote`, `"has""quote"`},
		{`"; DROP TABLE x; --`, `"""; DROP TABLE x; --"`},
	}
	for _, tt := range tests {
		if got := quoteIdentifier(tt.input); got != tt.want {
			t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestToDBColumnName(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Checkout Date", "checkout_date"},
		{"room_no", "room_no"},
		{" Claim Amount ", "claim_amount"},
	}
	for _, tt := range tests {
		if got := toDBColumnName(tt.input); got != tt.want {
			t.Errorf("toDBColumnName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolveDBColumn(t *testing.T) {
	specs := []FieldSpec{
		{Name: "Status", DBColumn: "state"},
		{Name: "Room No"},
	}

	if got := resolveDBColumn("status", specs); got != "state" {
		t.Errorf("mapped column = %q, want state", got)
	}
	if got := resolveDBColumn("Room No", specs); got != "room_no" {
		t.Errorf("derived column = %q, want room_no", got)
	}
	if got := strings.Join(resolveDBColumns([]string{"Status", "Room No"}, specs), ","); got != "state,room_no" {
		t.Errorf("resolveDBColumns = %q", got)
	}
}
