package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

// QueryTimeout bounds a single data source call.
var QueryTimeout = 15 * time.Second

// Limits bound what a single request may read.
type Limits struct {
	DefaultPageSize int // Page size for views that do not set one
	MaxPageSize     int // Largest page a Delegated view may request
	MaxLocalRows    int // Largest row set loaded for a Local view; 0 means no limit
}

// Service is the data source behind every view. Local views load their
// whole row set with [Service.FetchAll]; Delegated views page through
// [Service.FetchPage].
type Service struct {
	db     DBTX
	limits Limits
	logger *slog.Logger
}

// NewService creates a new Service instance.
func NewService(db DBTX, limits Limits, logger *slog.Logger) *Service {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = pipeline.DefaultPageSize
	}
	if limits.MaxPageSize < limits.DefaultPageSize {
		limits.MaxPageSize = limits.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, limits: limits, logger: logger}
}

// PageSize returns the initial page size for def.
func (s *Service) PageSize(def ViewDefinition) int {
	if def.PageSize > 0 {
		return min(def.PageSize, s.limits.MaxPageSize)
	}
	return s.limits.DefaultPageSize
}

// FetchAll loads every row of a view, up to Limits.MaxLocalRows.
func (s *Service) FetchAll(ctx context.Context, viewKey string) ([]cell.Row, error) {
	def, err := Lookup(viewKey)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := selectSQL(def, "", orderBy(def, pipeline.SortState{}))
	var args []interface{}
	if s.limits.MaxLocalRows > 0 {
		query += " LIMIT $1"
		args = append(args, s.limits.MaxLocalRows)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", viewKey, err)
	}
	result, err := collectRows(rows, def)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", viewKey, err)
	}

	if s.limits.MaxLocalRows > 0 && len(result) == s.limits.MaxLocalRows {
		s.logger.Warn("local view truncated", "view", viewKey, "rows", len(result))
	}
	return result, nil
}

// FetchPage returns one filtered, sorted page of a view together with the
// total number of matching rows. Pages past the end are clamped to the last
// page.
func (s *Service) FetchPage(ctx context.Context, viewKey string, q Query) (PageResult, error) {
	def, err := Lookup(viewKey)
	if err != nil {
		return PageResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	limit := q.Limit
	if limit <= 0 {
		limit = s.PageSize(def)
	}
	limit = min(limit, s.limits.MaxPageSize)

	wb := buildWhere(def, q)
	whereClause, args := wb.Build()

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdentifier(def.Info.Table), whereClause)
	var total int64
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return PageResult{}, fmt.Errorf("count %s: %w", viewKey, err)
	}

	page := q.Page
	if totalPages := pipeline.TotalPages(int(total), limit); page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	argIndex := wb.NextArgIndex()
	query := selectSQL(def, whereClause, orderBy(def, q.Sort)) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return PageResult{}, fmt.Errorf("query %s: %w", viewKey, err)
	}
	result, err := collectRows(rows, def)
	if err != nil {
		return PageResult{}, fmt.Errorf("read %s: %w", viewKey, err)
	}

	s.logger.DebugContext(ctx, "page fetched",
		"view", viewKey,
		"page", page,
		"limit", limit,
		"total", total,
		"rows", len(result),
	)

	return PageResult{
		Rows:       result,
		TotalCount: int(total),
		Page:       page,
		Limit:      limit,
	}, nil
}

// buildWhere translates the search term and column filters of q.
func buildWhere(def ViewDefinition, q Query) *WhereBuilder {
	wb := NewWhereBuilder()
	wb.AddSearch(strings.TrimSpace(q.Search), resolveDBColumns(def.Info.Columns, def.FieldSpecs))
	wb.AddFilters(def, q.Filters)
	return wb
}

// selectSQL selects the id column followed by the display columns.
func selectSQL(def ViewDefinition, whereClause, orderClause string) string {
	cols := append([]string{def.Info.IDColumn}, resolveDBColumns(def.Info.Columns, def.FieldSpecs)...)
	return fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(quoteColumns(cols), ", "),
		quoteIdentifier(def.Info.Table),
		whereClause,
		orderClause,
	)
}

// orderBy mirrors the in-memory comparator's null placement: nulls first
// ascending, last descending. The id column breaks ties so pages are stable.
func orderBy(def ViewDefinition, sort pipeline.SortState) string {
	if !sort.Active() {
		sort = def.DefaultSort
	}

	var parts []string
	if sort.Active() {
		if col, err := def.DBColumn(sort.Column); err == nil {
			if sort.Direction == pipeline.SortDescending {
				parts = append(parts, quoteIdentifier(col)+" DESC NULLS LAST")
			} else {
				parts = append(parts, quoteIdentifier(col)+" ASC NULLS FIRST")
			}
		}
	}
	parts = append(parts, quoteIdentifier(def.Info.IDColumn)+" ASC")
	return strings.Join(parts, ", ")
}

// collectRows converts driver rows to cell rows, keeping the id under IDKey.
func collectRows(rows pgx.Rows, def ViewDefinition) ([]cell.Row, error) {
	defer rows.Close()

	result := []cell.Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		if len(values) != len(def.Info.Columns)+1 {
			return nil, fmt.Errorf("row has %d values, want %d", len(values), len(def.Info.Columns)+1)
		}

		fields := make([]cell.Field, 0, len(values))
		fields = append(fields, cell.Field{Name: IDKey, Value: cell.FromAny(values[0])})
		for i, col := range def.Info.Columns {
			fields = append(fields, cell.Field{Name: col, Value: cell.FromAny(values[i+1])})
		}
		result = append(result, cell.NewRow(fields...))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
