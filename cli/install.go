package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInstallCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download the default pack unless a valid copy is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(app)
			if err != nil {
				return err
			}
			defer s.close()

			err = s.run(func(ctx context.Context) error {
				return s.manager.InstallDefaultPack(ctx)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(app.IO.Out, "Default pack installed at %s\n", s.manager.Installer().CachedPath())
			return nil
		},
	}
}
