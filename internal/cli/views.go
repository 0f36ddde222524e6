package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dashboard/internal/core"
)

func newViewsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the registered views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printViews(cmd.OutOrStdout())
		},
	}
}

func printViews(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tKEY\tLABEL\tMODE\tTABLE")
	for _, group := range core.Groups() {
		for _, def := range core.ByGroup(group) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				group, def.Info.Key, def.Info.Label, def.Mode, def.Info.Table)
		}
	}
	return tw.Flush()
}
