package templates

import (
	"context"
	"slices"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

// PageSizes are the limits offered by the page size selector.
var PageSizes = []int{10, 25, 50, 100}

// TableData is everything the table partial draws.
type TableData struct {
	InstanceID    string
	Info          core.ViewInfo
	SearchEnabled bool
	Filters       []pipeline.FilterSpec
	View          pipeline.View

	// Display returns the rendered value of a cell.
	Display func(row cell.Row, column string) cell.Value
}

func (d TableData) target() string   { return "#table-" + d.InstanceID }
func (d TableData) endpoint() string { return "/api/instances/" + d.InstanceID + "/events" }

// hx writes the attributes every table control shares.
func (d TableData) hx(h *html, trigger, payload string) {
	h.attr("hx-post", d.endpoint())
	h.attr("hx-target", d.target())
	h.attr("hx-swap", "outerHTML")
	if trigger != "" {
		h.attr("hx-trigger", trigger)
	}
	h.attr("hx-vals", payload)
}

// TablePage renders a full page around one mounted table.
func TablePage(d TableData) templ.Component {
	return Layout(d.Info.Label, component(func(ctx context.Context, h *html) {
		h.raw(`<h1>`)
		h.text(d.Info.Label)
		h.raw(`</h1>`)
		h.child(ctx, Table(d))
	}))
}

// Table renders the swappable table partial.
func Table(d TableData) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<div class="table-instance"`)
		h.attr("id", "table-"+d.InstanceID)
		h.attr("data-mode", d.View.Mode.String())
		h.raw(`><div class="toolbar">`)
		if d.SearchEnabled {
			searchBox(h, d)
		}
		for _, spec := range d.Filters {
			filterControl(h, d, spec)
		}
		h.raw(`</div>`)

		grid(h, d)
		pager(h, d)
		h.raw(`</div>`)
	})
}

// searchBox sends the draft as it is typed and commits it on Enter (form
// submit) or when focus leaves the box.
func searchBox(h *html, d TableData) {
	id := "search-" + d.InstanceID

	h.raw(`<form class="search"`)
	d.hx(h, "submit", vals("type", string(pipeline.EventSearchKey), "key", pipeline.KeyEnter))
	h.raw(`><div`)
	d.hx(h, "focusout", vals("type", string(pipeline.EventSearchBlur)))
	h.attr("hx-include", "#"+id)
	h.raw(`><input type="search" name="text" placeholder="Search" autocomplete="off"`)
	h.attr("id", id)
	h.attr("value", d.View.Search)
	d.hx(h, "input changed delay:200ms", vals("type", string(pipeline.EventSearchInput)))
	h.raw(`></div></form>`)
}

func filterControl(h *html, d TableData, spec pipeline.FilterSpec) {
	current := d.View.Filters[spec.Column]

	h.raw(`<form class="filter"`)
	d.hx(h, "change", vals("type", string(pipeline.EventFilterChange), "column", spec.Column))
	h.raw(`><label>`)
	h.text(spec.Column)
	h.raw(` `)

	switch spec.Kind {
	case pipeline.FilterDropdown:
		s, _ := current.Str()
		h.raw(`<select name="value"><option value="">All</option>`)
		for _, opt := range spec.Options {
			option(h, opt, opt == s)
		}
		h.raw(`</select>`)

	case pipeline.FilterMultiSelect:
		var selected []string
		for _, item := range current.Items() {
			selected = append(selected, item.Text())
		}
		h.raw(`<select name="value" multiple>`)
		for _, opt := range spec.Options {
			option(h, opt, slices.Contains(selected, opt))
		}
		h.raw(`</select>`)

	case pipeline.FilterDate, pipeline.FilterDateTime:
		typ, layout := "date", "2006-01-02"
		if spec.Kind == pipeline.FilterDateTime {
			typ, layout = "datetime-local", "2006-01-02T15:04"
		}
		h.raw(`<input name="value"`)
		h.attr("type", typ)
		if t, ok := current.Time(); ok {
			h.attr("value", t.Format(layout))
		}
		h.raw(`>`)

	case pipeline.FilterDateRange:
		for _, bound := range []struct{ name, key string }{
			{"start", cell.StartDateKey},
			{"end", cell.EndDateKey},
		} {
			h.raw(`<input type="date"`)
			h.attr("name", bound.name)
			if v, ok := current.Field(bound.key); ok {
				if t, ok := v.AsDate(); ok {
					h.attr("value", t.Format("2006-01-02"))
				}
			}
			h.raw(`>`)
		}

	default:
		h.raw(`<input type="text" name="value"`)
		if s, ok := current.Str(); ok {
			h.attr("value", s)
		}
		h.raw(`>`)
	}
	h.raw(`</label></form>`)
}

func option(h *html, value string, selected bool) {
	h.raw(`<option`)
	h.attr("value", value)
	h.flag("selected", selected)
	h.raw(`>`)
	h.text(value)
	h.raw(`</option>`)
}

func grid(h *html, d TableData) {
	v := d.View
	if len(v.Rows) == 0 {
		h.raw(`<p class="empty">No rows match.</p>`)
		return
	}

	h.raw(`<table><thead><tr>`)
	for _, col := range v.Columns {
		h.raw(`<th><button type="button" class="sort"`)
		d.hx(h, "", vals("type", string(pipeline.EventSortClick), "column", col))
		h.raw(`>`)
		h.text(col)
		if v.Sort.Column == col {
			switch v.Sort.Direction {
			case pipeline.SortAscending:
				h.raw(` &#9650;`)
			case pipeline.SortDescending:
				h.raw(` &#9660;`)
			}
		}
		h.raw(`</button></th>`)
	}
	h.raw(`</tr></thead><tbody>`)

	for _, row := range v.Rows {
		h.raw(`<tr`)
		if id := row.Get(core.IDKey); !id.IsNull() {
			h.attr("data-id", id.Text())
		}
		h.raw(`>`)
		for _, col := range v.Columns {
			h.raw(`<td>`)
			h.text(d.cell(row, col))
			h.raw(`</td>`)
		}
		h.raw(`</tr>`)
	}
	h.raw(`</tbody></table>`)
}

func (d TableData) cell(row cell.Row, col string) string {
	if d.Display != nil {
		return d.Display(row, col).Text()
	}
	return row.Get(col).Text()
}

func pager(h *html, d TableData) {
	p := d.View.Page

	h.raw(`<nav class="pager"><button type="button"`)
	d.hx(h, "", vals("type", string(pipeline.EventPrevPage)))
	h.flag("disabled", !p.HasPrev)
	h.raw(`>Previous</button><span class="page">Page `)
	h.text(itoa(p.Page))
	h.raw(` of `)
	h.text(itoa(max(p.TotalPages, 1)))
	h.raw(` (`)
	h.text(itoa(p.TotalCount))
	h.raw(` rows)</span><button type="button"`)
	d.hx(h, "", vals("type", string(pipeline.EventNextPage)))
	h.flag("disabled", !p.HasNext)
	h.raw(`>Next</button>`)

	h.raw(`<select name="limit"`)
	d.hx(h, "change", vals("type", string(pipeline.EventLimitChange)))
	h.raw(`>`)
	sizes := PageSizes
	if !slices.Contains(sizes, p.Limit) {
		sizes = append(slices.Clone(sizes), p.Limit)
		slices.Sort(sizes)
	}
	for _, n := range sizes {
		h.raw(`<option`)
		h.attr("value", itoa(n))
		h.flag("selected", n == p.Limit)
		h.raw(`>`)
		h.text(itoa(n))
		h.raw(` per page</option>`)
	}
	h.raw(`</select></nav>`)
}
