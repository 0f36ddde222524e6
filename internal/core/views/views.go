// Package views registers the dashboard's business views with the core
// registry. Import this package to ensure all views are registered.
package views

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

var printer = message.NewPrinter(language.English)

// money renders a numeric amount with grouping and two decimals.
func money(_ cell.Row, v cell.Value) cell.Value {
	f, ok := v.Num()
	if !ok {
		return v
	}
	return cell.String(printer.Sprintf("%.2f", f))
}

// yesNo renders booleans as words.
func yesNo(_ cell.Row, v cell.Value) cell.Value {
	b, ok := v.BoolVal()
	if !ok {
		return v
	}
	if b {
		return cell.String("Yes")
	}
	return cell.String("No")
}

// title renders enum values as "Checked out" rather than "checked_out".
func title(_ cell.Row, v cell.Value) cell.Value {
	s, ok := v.Str()
	if !ok || s == "" {
		return v
	}
	s = strings.ReplaceAll(s, "_", " ")
	return cell.String(strings.ToUpper(s[:1]) + s[1:])
}

// choice builds a filter whose options are the column's enum values.
func choice(spec core.FieldSpec, kind pipeline.FilterKind) pipeline.FilterSpec {
	return pipeline.FilterSpec{Column: spec.Name, Kind: kind, Options: spec.EnumValues}
}

func search(column string) pipeline.FilterSpec {
	return pipeline.FilterSpec{Column: column, Kind: pipeline.FilterSearch}
}

func dateRange(column string) pipeline.FilterSpec {
	return pipeline.FilterSpec{Column: column, Kind: pipeline.FilterDateRange}
}

func ascending(column string) pipeline.SortState {
	return pipeline.SortState{Column: column, Direction: pipeline.SortAscending}
}

func descending(column string) pipeline.SortState {
	return pipeline.SortState{Column: column, Direction: pipeline.SortDescending}
}
