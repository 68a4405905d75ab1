package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/batchfile"
	"github.com/roach88/contactsync/internal/patch"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Delete bool // emit a removal batch instead of a snapshot
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a contact row as a YAML batch file",
		Long: `Encode a projected contact as a patch batch that apply accepts.

With --delete the batch removes the contact instead. A removal batch does not
need the row to exist.`,
		Example: `  contactsync export 3f2a... > john.yaml
  contactsync export --delete 3f2a... > drop-john.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid contact id %q", args[0]), err)
			}
			return runExport(cmd, opts, id)
		},
	}

	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "export a removal batch")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions, id uuid.UUID) error {
	var patches []patch.Patch

	if opts.Delete {
		patches = patch.EncodeRemoval(id)
	} else {
		ctx := commandContext(cmd)
		env, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr(), envOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		c, found, err := env.Repo.Find(ctx, id)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read contact", err)
		}
		if !found {
			return NewExitError(ExitFailure, fmt.Sprintf("contact %s not found", id))
		}
		patches = patch.Encode(c)
	}

	if err := batchfile.Write(cmd.OutOrStdout(), patches); err != nil {
		return WrapExitError(ExitFailure, "failed to write batch", err)
	}
	return nil
}
