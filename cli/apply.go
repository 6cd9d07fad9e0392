package cli

import (
	"context"
	"fmt"

	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/MilitaerMilitz/2D-Kailexcraft/resourcepack"
	"github.com/spf13/cobra"
)

func newApplyCommand(app *AppContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "apply [pack]",
		Short: "Unpack a pack into the resource directory",
		Long:  "apply replaces the resource directory with the given pack, a name in the pack directory or a path to an archive or folder. Without an argument the active pack is applied again if needed.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
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

			name := s.settings.ActivePack()
			if len(args) == 1 {
				name = args[0]
			}
			path := name
			if !looksLikePath(name) {
				path = s.manager.PackPath(name)
			}

			var res resourcepack.Result
			err = s.run(func(ctx context.Context) error {
				var applyErr error
				res, applyErr = s.manager.ApplyPack(ctx, path, force)
				return applyErr
			})
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintf(app.IO.Out, "%s is already active\n", res.Pack)
				return nil
			}
			fmt.Fprintf(app.IO.Out, "Applied %s\n", res.Pack)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Apply even if the pack is already active")
	return cmd
}
