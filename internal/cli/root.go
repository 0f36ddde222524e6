// Package cli wires configuration, logging and the data source into the
// dashboard's cobra commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dashboard/internal/config"
	"github.com/JonMunkholm/dashboard/internal/core"
	_ "github.com/JonMunkholm/dashboard/internal/core/views" // Register all views
	"github.com/JonMunkholm/dashboard/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// app carries what every command needs once the root pre-run has loaded it.
type app struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Browse business views as searchable, sortable, paged tables",
		Long: `dashboard serves an HTML admin dashboard over PostgreSQL-backed views
and includes a terminal browser for the same views or for a JSON file
of rows.

Configuration is read from environment variables, optionally loaded
from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file to load if present")

	cmd.AddCommand(
		newServeCmd(a),
		newBrowseCmd(a),
		newViewsCmd(a),
	)
	return cmd
}

// load reads the env file, configuration and logging settings.
func (a *app) load() error {
	// Overload lets the file win over the inherited environment.
	if err := godotenv.Overload(a.envFile); err != nil {
		slog.Debug("no env file loaded, using environment variables", "file", a.envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	a.cfg = cfg
	return nil
}

// Execute runs the root command and reports any error on stderr, in its
// user-facing form when one is known.
func Execute() error {
	if err := newRootCmd().Execute(); err != nil {
		msg := err.Error()
		if core.IsUserFacing(err) {
			slog.Debug("command failed", "error", err)
			msg = core.FormatUserError(err)
		}
		fmt.Fprintln(os.Stderr, "Error:", msg)
		return err
	}
	return nil
}
