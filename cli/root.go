package cli

import (
	"fmt"

	"github.com/MilitaerMilitz/2D-Kailexcraft/exitcode"
	"github.com/spf13/cobra"
)

func Execute(build BuildInfo, streams IOStreams) int {
	app := &AppContext{Build: build, IO: streams}
	root := newRootCommand(app)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(streams.ErrOut, "ERROR:", err)
		return mapExitCode(err)
	}
	return exitcode.Success
}

func newRootCommand(app *AppContext) *cobra.Command {
	showVersion := false

	root := &cobra.Command{
		Use:   "kailex",
		Short: "Install and apply resource packs for Kailexcraft 2D",
		Long:  "kailex manages the resource packs of Kailexcraft 2D: it caches the default pack, downloads extra packs and unpacks the active one into the resource directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(app)
				return nil
			}
			return cmd.Help()
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	root.PersistentFlags().StringVar(&app.Opts.Home, "home", "", "Home directory (default: per-user data directory, or $KAILEX_HOME)")
	root.PersistentFlags().BoolVar(&app.Opts.Plain, "plain", false, "Print progress as plain lines instead of a progress bar")
	root.PersistentFlags().BoolVarP(&app.Opts.Quiet, "quiet", "q", false, "Do not report progress")
	root.Flags().BoolVar(&showVersion, "version", false, "Print version info")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(exitcode.InvalidUsage, err)
	})

	root.AddCommand(newApplyCommand(app))
	root.AddCommand(newInstallCommand(app))
	root.AddCommand(newDownloadCommand(app))
	root.AddCommand(newPacksCommand(app))
	root.AddCommand(newHistoryCommand(app))
	root.AddCommand(newOpenCommand(app))
	root.AddCommand(newVersionCommand(app))

	return root
}

func printVersion(app *AppContext) {
	version := app.Build.Version
	if version == "" {
		version = "dev"
	}
	commit := app.Build.Commit
	if commit == "" {
		commit = "unknown"
	}
	date := app.Build.Date
	if date == "" {
		date = "unknown"
	}

	fmt.Fprintf(app.IO.Out, "kailex version %s\ncommit: %s\nbuild_date: %s\n", version, commit, date)
}
