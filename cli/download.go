package cli

import (
	"context"
	"fmt"

	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/spf13/cobra"
)

func newDownloadCommand(app *AppContext) *cobra.Command {
	var size int64

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a pack into the pack directory",
		Long:  "download fetches an http(s) or s3://bucket/key URL into the pack directory, named after the server-provided file name.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
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

			var name string
			err = s.run(func(ctx context.Context) error {
				var downloadErr error
				name, downloadErr = s.manager.DownloadPack(ctx, args[0], size)
				return downloadErr
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(app.IO.Out, "Downloaded %s\n", name)
			return nil
		},
	}

	cmd.Flags().Int64Var(&size, "size", -1, "Expected size in bytes (looked up from the server when negative)")
	return cmd
}
