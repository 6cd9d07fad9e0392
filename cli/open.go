package cli

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/MilitaerMilitz/2D-Kailexcraft/resourcepack"
)

// openFile is swapped out in tests.
var openFile = browser.OpenFile

func newOpenCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:       "open [resource|packs]",
		Short:     "Open the resource or pack directory in the file manager",
		ValidArgs: []string{"resource", "packs"},
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs)(cmd, args); err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(app)
			if err != nil {
				return err
			}
			defer s.close()

			rel := resourcepack.ResourceDir
			if len(args) == 1 && args[0] == "packs" {
				rel = resourcepack.PackDir
			}
			path, err := s.manager.Validate(rel)
			if err != nil {
				return withKindCode(err)
			}

			browser.Stdout = app.IO.ErrOut
			browser.Stderr = app.IO.ErrOut
			if err := openFile(path); err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("failed to open %s: %w", path, err))
			}
			fmt.Fprintln(app.IO.Out, path)
			return nil
		},
	}
}
