package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/spf13/cobra"
)

func newHistoryCommand(app *AppContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent install, download and apply runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("--limit must be positive"))
			}
			s, err := openSession(app)
			if err != nil {
				return err
			}
			defer s.close()

			entries, err := s.journal.Recent(cmd.Context(), limit)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.IO.Out, "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(app.IO.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tKIND\tPACK\tSTATE\tDURATION\tMESSAGE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.StartedAt.Local().Format(time.DateTime),
					e.Kind,
					e.Pack,
					e.State,
					e.Duration().Round(time.Millisecond),
					e.Message,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
