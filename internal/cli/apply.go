package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/batchfile"
	"github.com/roach88/contactsync/internal/patch"
)

// FileResult reports what applying one batch file did.
type FileResult struct {
	File    string      `json:"file"`
	Patches int         `json:"patches"`
	Actions []string    `json:"actions"`
	Errors  []*CLIError `json:"errors,omitempty"`
}

// ApplyResult is the JSON payload of the apply command.
type ApplyResult struct {
	Files  []FileResult `json:"files"`
	Failed int          `json:"failed"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <file>...",
		Short: "Reconcile patch batch files into the projection",
		Long: `Load YAML, JSON or CUE batch files and reconcile them in order.

Each file is split into one batch per contact. A rejected batch is reported
and the remaining batches and files are still applied.

Exit codes:
  0 - Every batch applied
  1 - At least one batch was rejected or failed to write
  2 - A file could not be read or failed schema validation`,
		Example: `  contactsync apply changes.yaml
  contactsync apply --db ./contacts.sqlite a.yaml b.cue`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, rootOpts, args)
		},
	}
}

func runApply(cmd *cobra.Command, opts *RootOptions, files []string) error {
	// Every file is loaded before anything is written.
	loaded := make([][]patch.Patch, len(files))
	for i, f := range files {
		patches, err := batchfile.Load(f)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", f), err)
		}
		loaded[i] = patches
	}

	ctx := commandContext(cmd)
	env, err := openEnv(ctx, opts, cmd.ErrOrStderr(), envOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	result := ApplyResult{Files: make([]FileResult, 0, len(files))}
	for i, f := range files {
		results, err := env.Engine.ApplyDiff(ctx, loaded[i])
		fr := FileResult{
			File:    f,
			Patches: len(loaded[i]),
			Actions: actionNames(results),
			Errors:  applyErrors(err),
		}
		if len(fr.Errors) > 0 {
			result.Failed++
		}
		result.Files = append(result.Files, fr)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := out.Success(result, func(w io.Writer) {
		for _, fr := range result.Files {
			fmt.Fprintf(w, "%s: %d patches, actions %v\n", fr.File, fr.Patches, fr.Actions)
			for _, e := range fr.Errors {
				fmt.Fprintf(w, "  [%s] %s\n", e.Code, e.Message)
			}
		}
	}); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) had rejected batches", result.Failed))
	}
	return nil
}

// applyErrors splits the joined error from ApplyDiff into one entry per
// failed batch.
func applyErrors(err error) []*CLIError {
	if err == nil {
		return nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	out := make([]*CLIError, len(errs))
	for i, e := range errs {
		code := "E_STORAGE"
		if c := patch.CodeOf(e); c != "" {
			code = string(c)
		}
		out[i] = &CLIError{Code: code, Message: e.Error()}
	}
	return out
}
