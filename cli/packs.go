package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPacksCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "packs",
		Short: "List available packs and mark the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(app)
			if err != nil {
				return err
			}
			defer s.close()

			active := s.settings.ActivePack()
			packs := s.settings.AvailablePacks()
			if len(packs) == 0 {
				fmt.Fprintln(app.IO.Out, "No packs found. Run `kailex install` to fetch the default pack.")
				return nil
			}
			for _, name := range packs {
				marker := " "
				if name == active {
					marker = "*"
				}
				fmt.Fprintf(app.IO.Out, "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
