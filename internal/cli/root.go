// Package cli is the terminal client: the same flows as the web backend,
// with client state kept in a local SQLite file.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string
	Backend string
	State   string

	app *App
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the foozam CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "foozam",
		Short:         "Foozam - identify a dish from a photo",
		Long:          "Recognize dishes from photos, find places serving them and keep a history of your scans.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			opts.app = app
			app.pageView(cmd.Context(), cmd.Name())
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "backend base URL (default $BACKEND_URL)")
	cmd.PersistentFlags().StringVar(&opts.State, "state", defaultStatePath(), "path of the local state database")

	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewDishCommand(opts))
	cmd.AddCommand(NewFeedbackCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewFavoriteCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewPrivacyCommand(opts))

	return cmd
}

// Run executes the CLI and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if opts.app != nil {
		if cerr := opts.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		format := opts.Format
		if !isValidFormat(format) {
			format = "text"
		}
		(&Output{Format: format, Writer: stderr}).Error(err)
	}
	return GetExitCode(err)
}

func output(opts *RootOptions, cmd *cobra.Command) *Output {
	return &Output{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
