// Package config holds the settings shared by all doctor-diff commands.
// Defaults come from DOCTOR_DIFF_* environment variables; command-line flags
// override them.
package config

import (
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
)

const (
	EnvWorkspace = "DOCTOR_DIFF_WORKSPACE"
	EnvDigest    = "DOCTOR_DIFF_DIGEST"
	EnvExclude   = "DOCTOR_DIFF_EXCLUDE"
	EnvJobs      = "DOCTOR_DIFF_JOBS"
	EnvLogLevel  = "DOCTOR_DIFF_LOG_LEVEL"
	EnvLogFormat = "DOCTOR_DIFF_LOG_FORMAT"
)

// Config is the resolved configuration of one invocation.
type Config struct {
	Workspace string
	Digest    string
	Exclude   []string
	Jobs      int
	LogLevel  string
	LogFormat string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Workspace: ".",
		Digest:    string(digest.Default),
		Jobs:      1,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// FromEnv overlays environment variables read through getenv onto the
// defaults. A nil getenv means os.Getenv. DOCTOR_DIFF_JOBS accepts a number
// or "auto"; anything else keeps the default.
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := Default()
	if v := getenv(EnvWorkspace); v != "" {
		c.Workspace = v
	}
	if v := getenv(EnvDigest); v != "" {
		c.Digest = v
	}
	if v := getenv(EnvExclude); v != "" {
		c.Exclude = splitList(v)
	}
	if v := getenv(EnvJobs); v != "" {
		if strings.EqualFold(v, "auto") {
			c.Jobs = runtime.NumCPU()
		} else if n, err := strconv.Atoi(v); err == nil {
			c.Jobs = n
		}
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AddFlags registers the global flags on f, using the current values of c as
// defaults.
func (c *Config) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log `level` (trace|debug|info|warn|error) (default: $"+EnvLogLevel+")")
	f.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log `format` (text|json) (default: $"+EnvLogFormat+")")
}

// AddWorkspaceFlags registers the flags of the patch command family.
func (c *Config) AddWorkspaceFlags(f *pflag.FlagSet) {
	f.StringVarP(&c.Workspace, "workspace", "w", c.Workspace, "workspace `directory` (default: $"+EnvWorkspace+" or .)")
	f.StringVar(&c.Digest, "digest", c.Digest, "digest `algorithm` (sha256|xxh3-128) (default: $"+EnvDigest+")")
	f.StringSliceVar(&c.Exclude, "exclude", c.Exclude, "gitignore-style `pattern` to leave out of snapshots, can be repeated (default: $"+EnvExclude+")")
	f.IntVarP(&c.Jobs, "jobs", "j", c.Jobs, "number of files hashed in `parallel` (default: $"+EnvJobs+")")
}

// Algorithm returns the configured digest algorithm.
func (c Config) Algorithm() (digest.Algorithm, error) {
	return digest.ParseAlgorithm(c.Digest)
}

// Validate rejects values no command can run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Workspace) == "" {
		return errors.New("workspace must not be empty")
	}
	if _, err := c.Algorithm(); err != nil {
		return err
	}
	if c.Jobs < 1 {
		return errors.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger. Validate must have succeeded.
func (c Config) NewLogger(out io.Writer) *log.Logger {
	l := log.New()
	l.SetOutput(out)
	if lvl, err := log.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	if strings.EqualFold(c.LogFormat, "json") {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	}
	return l
}
