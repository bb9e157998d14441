// Package validate performs structural checks on manifests and change sets
// that arrive from outside the process (hashes files, archive metadata).
//
// Checks are aggregated: one error lists every issue found, one per line.
package validate

import (
	"fmt"
	"path"
	"strings"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/manifest"
	"doctor-diff/internal/sortutil"
)

// Path reports why p cannot be used as a workspace-relative path:
//
//   - must be non-empty and relative (no leading '/', no drive letter)
//   - must use forward slashes
//   - must be clean and must not contain "." or ".." segments
func Path(p string) error {
	switch {
	case p == "":
		return errors.New("path must be non-empty")
	case strings.HasPrefix(p, "/"):
		return errors.Errorf("path %q must be relative", p)
	case len(p) > 1 && p[1] == ':':
		return errors.Errorf("path %q must not carry a drive letter", p)
	case strings.Contains(p, `\`):
		return errors.Errorf("path %q must use forward slashes", p)
	case hasDotSegment(p):
		return errors.Errorf("path %q must not contain '.' or '..' segments", p)
	case path.Clean(p) != p:
		return errors.Errorf("path %q is not clean", p)
	}
	return nil
}

// Manifest checks every path of m and that every digest has the size alg
// produces.
func Manifest(m manifest.Manifest, alg digest.Algorithm) error {
	var errs errlist
	for _, p := range m.Paths() {
		if err := Path(p); err != nil {
			errs.add("%v", err)
		}
		if d := m[p]; !alg.Valid(d) {
			errs.add("%s: digest has %d bytes, %s produces %d", p, d.Len(), alg, alg.Size())
		}
	}
	return errs.err()
}

// ChangeSet checks paths, kinds and digests of set. Add and Update must carry
// a digest of alg's size; Remove must not carry one. A path must not also
// appear as a parent directory of another entry that writes a file.
func ChangeSet(set changes.Set, alg digest.Algorithm) error {
	var errs errlist
	writes := make(map[string]struct{})
	for _, p := range sortutil.SortedKeys(set) {
		c := set[p]
		if err := Path(p); err != nil {
			errs.add("%v", err)
		}
		switch c.Kind {
		case changes.Add, changes.Update:
			writes[p] = struct{}{}
			if !alg.Valid(c.Digest) {
				errs.add("%s: %s digest has %d bytes, %s produces %d", p, c.Kind, c.Digest.Len(), alg, alg.Size())
			}
		case changes.Remove:
			if !c.Digest.IsZero() {
				errs.add("%s: Remove must not carry a digest", p)
			}
		default:
			errs.add("%s: invalid change kind %d", p, uint8(c.Kind))
		}
	}
	for p := range writes {
		for dir := path.Dir(p); dir != "."; dir = path.Dir(dir) {
			if _, clash := writes[dir]; clash {
				errs.add("%s: parent %s is also written as a file", p, dir)
			}
		}
	}
	return errs.err()
}

func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if len(e.msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(sortutil.StablePathSort(e.msgs), "\n"))
}
