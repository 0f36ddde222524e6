package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/logging"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
	"github.com/JonMunkholm/dashboard/internal/tui"
)

type browseOptions struct {
	view  string
	file  string
	limit int
}

func newBrowseCmd(a *app) *cobra.Command {
	opts := &browseOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a view or a JSON file of rows in the terminal",
		Long: `Browse loads every row of a view (or a JSON array of objects) and
opens an interactive table.

Keys: / search, enter apply, esc leave search, ←/→ select column,
s sort, n/p next/previous page, +/- page size, q quit.`,
		Example: `  dashboard browse --view hostels
  dashboard browse --file rows.json --limit 25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.view, "view", "", "View key to load from the database")
	cmd.Flags().StringVar(&opts.file, "file", "", "JSON file holding an array of row objects")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Rows per page (default: the view's page size)")
	cmd.MarkFlagsMutuallyExclusive("view", "file")
	cmd.MarkFlagsOneRequired("view", "file")

	return cmd
}

func (a *app) browse(ctx context.Context, opts *browseOptions) error {
	table := pipeline.Options{
		ReservedPrefix: a.cfg.Table.ReservedPrefix,
		PageSize:       opts.limit,
		Locale:         a.cfg.Table.LocaleTag(),
		// The terminal belongs to the browser; keep log lines off it.
		Logger: logging.New(io.Discard, a.cfg.Logging.Level, a.cfg.Logging.Format),
	}

	var (
		title string
		rows  []cell.Row
		err   error
	)
	if opts.file != "" {
		title = filepath.Base(opts.file)
		rows, err = readRows(opts.file)
	} else {
		var def core.ViewDefinition
		def, rows, err = a.loadView(ctx, opts.view)
		title = def.Info.Label
		table.Renderers = def.Renderers
		if table.PageSize <= 0 {
			table.PageSize = def.PageSize
		}
	}
	if err != nil {
		return err
	}
	if table.PageSize <= 0 {
		table.PageSize = a.cfg.Table.DefaultPageSize
	}

	return tui.Run(title, rows, table)
}

func readRows(path string) ([]cell.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rows: %w", err)
	}
	defer f.Close()

	rows, err := cell.DecodeRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func (a *app) loadView(ctx context.Context, key string) (core.ViewDefinition, []cell.Row, error) {
	def, err := core.Lookup(key)
	if err != nil {
		return def, nil, err
	}

	pool, err := openPool(ctx, a.cfg)
	if err != nil {
		return def, nil, err
	}
	defer pool.Close()

	rows, err := newService(pool, a.cfg).FetchAll(ctx, key)
	return def, rows, err
}
