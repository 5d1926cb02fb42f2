package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Manifest string // manifest path, relative to Root unless absolute
	Root     string // project root that suite paths resolve against

	RunID  string       // UUIDv7 assigned per invocation
	Logger *slog.Logger // set by the root command before any subcommand runs
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fixturekit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fixturekit",
		Short: "fixturekit - fixture-driven plugin tests",
		Long: `Enumerate fixture files, check that every fixture has a test entry,
and run fixtures against golden expectations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := opts.setup(cmd)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Manifest, "manifest", "", "suite manifest (default $"+EnvManifest+" or fixtures.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "project root (default $"+EnvRoot+" or the current directory)")

	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	return cmd
}

// setup resolves configuration and creates the run logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if err := o.loadConfig(cmd.Flags()); err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create run id", err)
	}
	o.RunID = id.String()
	o.Logger = newLogger(cmd.ErrOrStderr(), o.logLevel()).With("run_id", o.RunID)
	return nil
}

// logger returns the run logger, or a discarding one before setup.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return newLogger(io.Discard, slog.LevelError)
	}
	return o.Logger
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
		TraceID:   o.RunID,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
