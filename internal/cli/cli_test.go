package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/dashboard/internal/core"
)

func TestReadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	data := `[{"_id": 1, "name": "Ada", "joined": "2024-01-02"}, {"_id": 2, "name": "Grace"}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	rows, err := readRows(path)
	if err != nil {
		t.Fatalf("readRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if got := strings.Join(rows[0].Keys(), ","); got != "_id,name,joined" {
		t.Errorf("column order = %q, want %q", got, "_id,name,joined")
	}
	if got := rows[1].Get("name").Text(); got != "Grace" {
		t.Errorf("rows[1] name = %q, want Grace", got)
	}
}

func TestReadRows_Errors(t *testing.T) {
	if _, err := readRows(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("readRows(missing) succeeded")
	}

	path := filepath.Join(t.TempDir(), "object.json")
	if err := os.WriteFile(path, []byte(`{"name": "Ada"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := readRows(path)
	if err == nil || !strings.Contains(err.Error(), "expected a JSON array") {
		t.Errorf("readRows(object) error = %v, want expected a JSON array", err)
	}
}

func TestPrintViews(t *testing.T) {
	var buf bytes.Buffer
	if err := printViews(&buf); err != nil {
		t.Fatalf("printViews() error = %v", err)
	}
	out := buf.String()

	if core.ViewCount() == 0 {
		t.Fatal("no views registered")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != core.ViewCount()+1 {
		t.Errorf("printed %d lines, want header plus %d views", len(lines), core.ViewCount())
	}
	for _, want := range []string{"GROUP", "library_checkouts", "delegated", "hostels", "local"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
