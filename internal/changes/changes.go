// Package changes classifies the difference between two manifests.
//
// Given a current manifest (what the workspace to be patched holds) and a
// target manifest (the reference state), every path in their union falls in
// exactly one class:
//
//   - Add:    present in target only
//   - Remove: present in current only
//   - Update: present in both with different digests
//   - unchanged (present in both, same digest): omitted from the Set
package changes

import (
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/manifest"
	"doctor-diff/internal/sortutil"
)

// Kind is the classification of a single path.
type Kind uint8

const (
	Add Kind = iota + 1
	Update
	Remove
)

var kindNames = map[Kind]string{Add: "Add", Update: "Update", Remove: "Remove"}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// HasPayload reports whether applying k needs file bytes.
func (k Kind) HasPayload() bool { return k == Add || k == Update }

func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, errors.Errorf("invalid change kind %d", uint8(k))
	}
	return []byte(s), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for v, s := range kindNames {
		if s == string(b) {
			*k = v
			return nil
		}
	}
	return errors.Errorf("invalid change kind %q", string(b))
}

// Change is the instruction for one path. Digest is the target content
// digest for Add and Update and zero for Remove.
type Change struct {
	Kind   Kind
	Digest digest.Digest
}

// Set maps workspace-relative paths to their Change.
type Set map[string]Change

// Diff computes the Set that turns current into target. It is pure and its
// result depends only on the two inputs.
func Diff(current, target manifest.Manifest) Set {
	set := make(Set)
	classifyAddedAndUpdated(set, current, target)
	classifyRemoved(set, current, target)
	return set
}

func classifyAddedAndUpdated(set Set, current, target manifest.Manifest) {
	for path, td := range target {
		cd, ok := current[path]
		switch {
		case !ok:
			set[path] = Change{Kind: Add, Digest: td}
		case cd != td:
			set[path] = Change{Kind: Update, Digest: td}
		}
	}
}

func classifyRemoved(set Set, current, target manifest.Manifest) {
	for path := range current {
		if _, ok := target[path]; !ok {
			set[path] = Change{Kind: Remove}
		}
	}
}

// Paths returns the paths of s in sorted order. This is the order used for
// serialization and for applying changes.
func (s Set) Paths() []string {
	return sortutil.SortedKeys(s)
}

// Summary counts the entries of a Set per kind.
type Summary struct {
	Added   int
	Updated int
	Removed int
}

// Total is the number of entries.
func (s Summary) Total() int { return s.Added + s.Updated + s.Removed }

func (s Set) Summary() Summary {
	var sum Summary
	for _, c := range s {
		switch c.Kind {
		case Add:
			sum.Added++
		case Update:
			sum.Updated++
		case Remove:
			sum.Removed++
		}
	}
	return sum
}

// Payload returns the sorted paths whose change carries file bytes.
func (s Set) Payload() []string {
	var out []string
	for _, p := range s.Paths() {
		if s[p].Kind.HasPayload() {
			out = append(out, p)
		}
	}
	return out
}
