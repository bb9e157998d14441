package walkwalk

import (
	"path"

	ignore "github.com/sabhiram/go-gitignore"

	"doctor-diff/internal/manifest"
)

// Matcher applies gitignore-style exclude patterns to workspace paths. A nil
// Matcher excludes nothing.
type Matcher struct {
	ig *ignore.GitIgnore
}

// NewMatcher compiles patterns. It returns nil when there are none.
func NewMatcher(patterns []string) *Matcher {
	if len(patterns) == 0 {
		return nil
	}
	return &Matcher{ig: ignore.CompileIgnoreLines(patterns...)}
}

// Excluded reports whether rel itself matches a pattern. Directory-only
// patterns ("build/") match when isDir is set.
func (m *Matcher) Excluded(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	if m.ig.MatchesPath(rel) {
		return true
	}
	return isDir && m.ig.MatchesPath(rel+"/")
}

// ExcludedFile reports whether a snapshot would leave out the regular file
// rel, either because it matches or because one of its parent directories
// does.
func (m *Matcher) ExcludedFile(rel string) bool {
	if m == nil {
		return false
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if m.Excluded(dir, true) {
			return true
		}
	}
	return m.Excluded(rel, false)
}

// Filter returns the entries of man that a snapshot with the same patterns
// would have produced. man is not modified.
func (m *Matcher) Filter(man manifest.Manifest) manifest.Manifest {
	out := make(manifest.Manifest, len(man))
	for p, d := range man {
		if !m.ExcludedFile(p) {
			out[p] = d
		}
	}
	return out
}
