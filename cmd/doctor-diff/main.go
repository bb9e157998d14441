// Command doctor-diff brings a workspace directory to the state of a
// reference copy by exchanging a hashes file and a patch archive.
package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"doctor-diff/internal/config"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/patch"
	"doctor-diff/internal/report"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	cfg    config.Config
	log    *log.Logger
	stderr io.Writer
}

func newApp(getenv func(string) string, stderr io.Writer) *app {
	return &app{cfg: config.FromEnv(getenv), stderr: stderr}
}

func (a *app) preRun() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	a.log = a.cfg.NewLogger(a.stderr)
	return nil
}

// patchOptions turns the configuration into operation options.
func (a *app) patchOptions() (patch.Options, error) {
	alg, err := a.cfg.Algorithm()
	if err != nil {
		return patch.Options{}, err
	}
	return patch.Options{
		Algorithm: alg,
		Exclude:   a.cfg.Exclude,
		Workers:   a.cfg.Jobs,
		Observer:  report.NewLogger(a.log.WithField("workspace", a.cfg.Workspace)),
	}, nil
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor-diff",
		Short: "Patch a workspace to match a reference copy",
		Long: `
doctor-diff compares a client workspace against a reference workspace by
file digest and moves the client to the reference state with a single zip
archive holding the changed files.

  client:    doctor-diff patch request -H hashes.json
  reference: doctor-diff patch create  -H hashes.json -a patch.zip
  client:    doctor-diff patch apply   -a patch.zip
`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,

		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.preRun()
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	a.cfg.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newPatchCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func main() {
	a := newApp(os.Getenv, os.Stderr)
	if err := newRootCommand(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// algorithmNames is used in help texts.
func algorithmNames() []string {
	var out []string
	for _, alg := range digest.Algorithms() {
		out = append(out, string(alg))
	}
	return out
}
