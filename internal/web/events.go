package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

// MaxEventSize bounds an event request body.
const MaxEventSize = 64 * 1024

var eventTypes = map[pipeline.EventType]bool{
	pipeline.EventSearchInput:  true,
	pipeline.EventSearchKey:    true,
	pipeline.EventSearchBlur:   true,
	pipeline.EventFilterChange: true,
	pipeline.EventSortClick:    true,
	pipeline.EventPageChange:   true,
	pipeline.EventPrevPage:     true,
	pipeline.EventNextPage:     true,
	pipeline.EventLimitChange:  true,
}

// decodeEvent reads one table event from a JSON body or an HTML form.
//
// Form fields: type, text, key, column, page, limit, and value. A
// multi-select sends value once per selected option; a date range sends
// start and end instead of value.
func decodeEvent(w http.ResponseWriter, r *http.Request, def core.ViewDefinition) (pipeline.Event, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxEventSize)

	var e pipeline.Event
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil && err != io.EOF {
			return e, fmt.Errorf("decode request: %w", err)
		}
	} else {
		var err error
		if e, err = eventFromForm(r, def); err != nil {
			return e, err
		}
	}

	if !eventTypes[e.Type] {
		return e, fmt.Errorf("invalid event type %q", e.Type)
	}
	if e.Type == pipeline.EventFilterChange {
		if e.Column == "" {
			return e, fmt.Errorf("invalid event: filter_change needs a column")
		}
		e.Value = coerceFilter(def, e.Column, e.Value)
	}
	return e, nil
}

func eventFromForm(r *http.Request, def core.ViewDefinition) (pipeline.Event, error) {
	if err := r.ParseForm(); err != nil {
		return pipeline.Event{}, fmt.Errorf("decode request: %w", err)
	}

	e := pipeline.Event{
		Type:   pipeline.EventType(r.Form.Get("type")),
		Text:   r.Form.Get("text"),
		Key:    r.Form.Get("key"),
		Column: r.Form.Get("column"),
	}

	var err error
	if e.Page, err = formInt(r, "page"); err != nil {
		return e, err
	}
	if e.Limit, err = formInt(r, "limit"); err != nil {
		return e, err
	}

	if e.Type == pipeline.EventFilterChange {
		e.Value = formValue(r, filterKind(def, e.Column))
	}
	return e, nil
}

func formInt(r *http.Request, name string) (int, error) {
	s := r.Form.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid event: %s must be a number", name)
	}
	return n, nil
}

func formValue(r *http.Request, kind pipeline.FilterKind) cell.Value {
	switch kind {
	case pipeline.FilterDateRange:
		return cell.DateRange(formString(r, "start"), formString(r, "end"))
	case pipeline.FilterMultiSelect:
		var selected []string
		for _, v := range r.Form["value"] {
			if v != "" {
				selected = append(selected, v)
			}
		}
		if len(selected) == 0 {
			return cell.Null()
		}
		return cell.Strings(selected...)
	}
	return formString(r, "value")
}

func formString(r *http.Request, name string) cell.Value {
	if s := r.Form.Get(name); s != "" {
		return cell.String(s)
	}
	return cell.Null()
}

// coerceFilter shapes a raw value for the column's filter kind. Columns
// without a filter spec are treated as free-text search filters.
func coerceFilter(def core.ViewDefinition, column string, v cell.Value) cell.Value {
	return filterKind(def, column).Coerce(v)
}

func filterKind(def core.ViewDefinition, column string) pipeline.FilterKind {
	for _, spec := range def.Filters {
		if strings.EqualFold(spec.Column, column) {
			return spec.Kind
		}
	}
	return pipeline.FilterSearch
}
