package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/contact"
	"github.com/roach88/contactsync/internal/document"
	"github.com/roach88/contactsync/internal/reconcile"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Keep bool // reuse the existing database instead of starting empty
}

// DemoStep is one stage of the walkthrough.
type DemoStep struct {
	Name     string            `json:"name"`
	Patches  int               `json:"patches"`
	Actions  []string          `json:"actions"`
	Contacts []contact.Contact `json:"contacts"`
}

// DemoResult is the JSON payload of the demo command.
type DemoResult struct {
	Steps []DemoStep `json:"steps"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create, update and delete a contact end to end",
		Long: `Run the walkthrough: create John Doe in an in-process document, change his
phone and email, then delete him. After every edit the document diff is
reconciled into the database and the projection is printed.

By default the SQLite database is recreated first; pass --keep to reuse it.

Examples:
  contactsync demo
  contactsync demo --db /tmp/demo.sqlite --verbose
  contactsync demo --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "keep existing rows in the database")

	return cmd
}

func runDemo(cmd *cobra.Command, opts *DemoOptions) error {
	ctx := commandContext(cmd)

	env, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr(), envOptions{fresh: !opts.Keep})
	if err != nil {
		return err
	}
	defer env.Close()

	doc := document.New()
	john := contact.New("John", "Doe", "555-123-4567", "john.doe@example.com")

	edits := []struct {
		name string
		edit func(d *document.Doc) error
	}{
		{"create", func(d *document.Doc) error {
			return document.PutContact(d, john)
		}},
		{"update", func(d *document.Doc) error {
			john.Phone = "555-987-6543"
			john.Email = "john.d@company.com"
			john.Touch()
			return document.PutContact(d, john)
		}},
		{"delete", func(d *document.Doc) error {
			return document.DeleteContact(d, john.ID)
		}},
	}

	result := DemoResult{Steps: make([]DemoStep, 0, len(edits))}
	for _, e := range edits {
		step, err := demoStep(ctx, env, doc, e.name, e.edit)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("demo %s failed", e.name), err)
		}
		result.Steps = append(result.Steps, step)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(result, func(w io.Writer) {
		for i, s := range result.Steps {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s (%d patches: %v)\n", s.Name, s.Patches, s.Actions)
			printContacts(w, s.Contacts)
		}
	})
}

func demoStep(ctx context.Context, env *Env, doc *document.Doc, name string, edit func(d *document.Doc) error) (DemoStep, error) {
	patches, err := document.Track(doc, edit)
	if err != nil {
		return DemoStep{}, err
	}
	env.Logger.Debug("document changed", "step", name, "patches", len(patches))

	results, err := env.Engine.ApplyDiff(ctx, patches)
	if err != nil {
		return DemoStep{}, err
	}

	contacts, err := env.Engine.Contacts(ctx)
	if err != nil {
		return DemoStep{}, err
	}

	return DemoStep{
		Name:     name,
		Patches:  len(patches),
		Actions:  actionNames(results),
		Contacts: nonNil(contacts),
	}, nil
}

func actionNames(results []reconcile.Result) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = string(r.Action)
	}
	return names
}

func nonNil(contacts []contact.Contact) []contact.Contact {
	if contacts == nil {
		return []contact.Contact{}
	}
	return contacts
}

// printContacts renders the projection one contact per line.
func printContacts(w io.Writer, contacts []contact.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, "(no contacts)")
		return
	}
	for _, c := range contacts {
		fmt.Fprintf(w, "%s  %s\n", c.ID, c)
	}
}

