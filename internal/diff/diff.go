// Package diff renders unified diffs between two versions of a file.
// It uses github.com/pmezard/go-difflib/difflib to produce classic unified
// patches (---/+++ headers, @@ hunks, lines prefixed with ' ', '-', '+').
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines used when Options.Context is 0.
const DefaultContext = 3

// Options controls patch generation.
type Options struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded,
	// a placeholder patch is returned and oversize=true.
	// 0 means "no limit".
	MaxBytes int

	// Context is the number of context lines in unified hunks.
	Context int

	// NoPrefix keeps FromFile/ToFile as passed instead of adding "a/" and "b/".
	NoPrefix bool
}

func (o Options) context() int {
	if o.Context <= 0 {
		return DefaultContext
	}
	return o.Context
}

func (o Options) names(path string) (string, string) {
	if o.NoPrefix {
		return path, path
	}
	return "a/" + path, "b/" + path
}

// Unified produces a unified patch turning a into b for path. An empty body
// means the inputs are identical.
func Unified(path string, a, b []byte, opt Options) (body string, oversize bool) {
	from, to := opt.names(path)
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return omitted(from, to), true
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: from,
		ToFile:   to,
		Context:  opt.context(),
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(from, to), false
	}
	return s, false
}

// Added produces a patch that creates path with content b.
func Added(path string, b []byte, opt Options) (string, bool) {
	_, to := opt.names(path)
	if opt.MaxBytes > 0 && len(b) > opt.MaxBytes {
		return omitted("/dev/null", to), true
	}
	u := difflib.UnifiedDiff{
		A:        []string{},
		B:        splitLinesKeepNL(string(b)),
		FromFile: "/dev/null",
		ToFile:   to,
		Context:  opt.context(),
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted("/dev/null", to), false
	}
	return s, false
}

// splitLinesKeepNL splits into lines and keeps newline characters,
// which produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}

// Omitted returns the placeholder patch used for oversize inputs.
func Omitted(path string, opt Options) string {
	return omitted(opt.names(path))
}

// omitted returns a compact placeholder when size limits are exceeded.
func omitted(from, to string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", from, to)
}
