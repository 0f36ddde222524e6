// Package core provides the dashboard's business views and the data source
// behind them.
//
// This package holds everything that is independent of a UI or transport. It
// can be used by web handlers, the terminal browser, or tests without
// modification.
//
// # View Registry
//
// Views are registered at init time using [Register]. Each [ViewDefinition]
// names its table, its columns, its filterable columns and the pipeline mode
// it is served in:
//
//	core.Register(core.ViewDefinition{
//	    Info: core.ViewInfo{Key: "hostels", Group: "Campus", Label: "Hostels"},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "Hostel", Type: core.FieldText},
//	        {Name: "Capacity", Type: core.FieldNumeric},
//	    },
//	    Filters: []pipeline.FilterSpec{{Column: "Hostel", Kind: pipeline.FilterSearch}},
//	    Mode:    pipeline.ModeLocal,
//	})
//
// # Data Source
//
// [Service.FetchAll] loads a Local view's complete row set; the pipeline then
// filters, sorts and pages it in memory. [Service.FetchPage] answers a
// Delegated view's [Query] with one page and the total match count. The SQL
// produced by [WhereBuilder] follows the same matching rules as the
// in-memory predicates, so switching a view's mode does not change which rows
// it shows.
//
// Every row carries its primary key in the reserved [IDKey] column, which is
// hidden from the visible column set.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB006: Database errors (connections, timeouts, schema)
//   - VIEW001-VIEW004: Unknown views, columns and table instances
//   - REQ001-REQ004: Malformed, cancelled or timed out requests
package core
