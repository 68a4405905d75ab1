package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string // explicit config file, overrides discovery
	DB         string // overrides store.dsn
	Driver     string // overrides store.driver
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the contactsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contactsync",
		Short: "contactsync - replicated contacts, projected to SQL",
		Long: `Reconcile change batches from a replicated contact document into a
relational projection, one insert, update or delete per batch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Driver != "" && opts.Driver != config.DriverSQLite && opts.Driver != config.DriverPostgres {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid driver %q: must be %s or %s", opts.Driver, config.DriverSQLite, config.DriverPostgres))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./contactsync.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database path or DSN (overrides store.dsn)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver: sqlite|postgres (overrides store.driver)")

	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
