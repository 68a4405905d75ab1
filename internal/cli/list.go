package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/contact"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the projection ordered by last name, first name",
		Example: `  contactsync list
  contactsync list --db ./contacts.sqlite --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env, err := openEnv(ctx, rootOpts, cmd.ErrOrStderr(), envOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			contacts, err := env.Engine.Contacts(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list contacts", err)
			}
			contacts = nonNil(contacts)

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(contacts, func(w io.Writer) {
				printContacts(w, contacts)
			})
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one contact row",
		Long: `Print the projected row for a contact ID.

Exit codes:
  0 - Row found
  1 - No row with that ID
  2 - ID is not a UUID, or the database could not be opened`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid contact id %q", args[0]), err)
			}

			ctx := commandContext(cmd)
			env, err := openEnv(ctx, rootOpts, cmd.ErrOrStderr(), envOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			c, found, err := env.Repo.Find(ctx, id)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read contact", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if !found {
				msg := fmt.Sprintf("contact %s not found", id)
				if rootOpts.Format == "json" {
					if err := out.Error("E_NOT_FOUND", msg, map[string]string{"id": id.String()}); err != nil {
						return err
					}
				}
				return NewExitError(ExitFailure, msg)
			}
			return out.Success(c, func(w io.Writer) {
				printContacts(w, []contact.Contact{c})
			})
		},
	}
}

// commandContext returns the command's context, falling back to Background
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
