package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"doctor-diff/internal/bundle"
	"doctor-diff/internal/diff"
	"doctor-diff/internal/patch"
)

func newPatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Request, create, apply or inspect workspace patches",
		Long: `
The patch commands operate on a workspace directory (--workspace, default .).
Digests use ` + strings.Join(algorithmNames(), " or ") + `; both sides must agree.
`,
	}
	a.cfg.AddWorkspaceFlags(cmd.PersistentFlags())
	cmd.AddCommand(
		newRequestCommand(a),
		newCreateCommand(a),
		newApplyCommand(a),
		newInspectCommand(a),
	)
	return cmd
}

func newRequestCommand(a *app) *cobra.Command {
	var hashes string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Write the digests of every workspace file to a hashes file",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			opts, err := a.patchOptions()
			if err != nil {
				return err
			}
			m, err := patch.Request(a.cfg.Workspace, hashes, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Wrote hashes %s (files=%d)\n", hashes, len(m))
			return nil
		},
	}
	cmd.Flags().StringVarP(&hashes, "hashes", "H", "", "hashes `file` to write")
	_ = cmd.MarkFlagRequired("hashes")
	return cmd
}

func newCreateCommand(a *app) *cobra.Command {
	var hashes, archive string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build a patch archive that moves the hashed client to this workspace",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			opts, err := a.patchOptions()
			if err != nil {
				return err
			}
			set, err := patch.Create(a.cfg.Workspace, hashes, archive, opts)
			if err != nil {
				return err
			}
			sum := set.Summary()
			fmt.Fprintf(c.OutOrStdout(), "Wrote patch %s (added=%d, updated=%d, removed=%d)\n",
				archive, sum.Added, sum.Updated, sum.Removed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&hashes, "hashes", "H", "", "hashes `file` produced by request on the client")
	cmd.Flags().StringVarP(&archive, "archive", "a", "", "patch archive `file` to write")
	_ = cmd.MarkFlagRequired("hashes")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}

func newApplyCommand(a *app) *cobra.Command {
	var archive string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a patch archive to the workspace",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			opts, err := a.patchOptions()
			if err != nil {
				return err
			}
			res, err := patch.Apply(a.cfg.Workspace, archive, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Applied %s (written=%d, removed=%d, warnings=%d)\n",
				archive, res.Written, res.Removed, len(res.Warnings))
			return nil
		},
	}
	cmd.Flags().StringVarP(&archive, "archive", "a", "", "patch archive `file` to apply")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}

type inspectOptions struct {
	archive  string
	withDiff bool
	diff     diff.Options
}

func newInspectCommand(a *app) *cobra.Command {
	var opts inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the changes carried by a patch archive",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ins, err := patch.Inspect(a.cfg.Workspace, opts.archive, opts.withDiff, opts.diff)
			if err != nil {
				return err
			}
			printInspection(c.OutOrStdout(), ins)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.archive, "archive", "a", "", "patch archive `file` to inspect")
	f.BoolVar(&opts.withDiff, "diff", false, "print unified diffs against the workspace")
	f.IntVar(&opts.diff.Context, "diff-context", diff.DefaultContext, "context `lines` in diffs")
	f.IntVar(&opts.diff.MaxBytes, "max-diff-bytes", 1<<20, "skip diffs of files larger than `n` bytes (0 = no limit)")
	f.BoolVar(&opts.diff.NoPrefix, "diff-no-prefix", false, "omit a/ and b/ prefixes in diff headers")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}

func printInspection(w io.Writer, ins patch.Inspection) {
	rec := ins.Record
	fmt.Fprintf(w, "format %s %s, digest %s\n", rec.Format, rec.Version, rec.Digest)
	fmt.Fprintf(w, "changes: added=%d updated=%d removed=%d\n",
		ins.Summary.Added, ins.Summary.Updated, ins.Summary.Removed)
	for _, e := range rec.Changes {
		fmt.Fprintf(w, "%-6s %s", e.Change, e.Path)
		if e.Digest != "" {
			fmt.Fprintf(w, " %s", e.Digest)
		}
		fmt.Fprintln(w)
	}
	for _, pv := range ins.Previews {
		printPreview(w, pv)
	}
}

func printPreview(w io.Writer, pv bundle.Preview) {
	switch {
	case pv.Missing:
		fmt.Fprintf(w, "# %s: payload missing from archive\n", pv.Path)
	case pv.Binary:
		fmt.Fprintf(w, "# %s: binary content\n", pv.Path)
	default:
		fmt.Fprint(w, pv.Body)
	}
}
