package bundle

import (
	"github.com/Masterminds/semver/v3"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
)

const (
	// FormatName identifies patch archives.
	FormatName = "doctor-diff/changeset"
	// FormatVersion is written into new archives.
	FormatVersion = "1.0.0"
	// SupportedVersions is the range of record versions this reader accepts.
	SupportedVersions = "^1.0.0"
	// ChangesEntry holds the full record when it does not fit in the zip
	// comment.
	ChangesEntry = "changes.json"
)

// Record is the metadata of a patch archive. It lives in the zip comment;
// when the change list is too long for the comment, the comment carries the
// header only and ChangesEntry names the entry holding the full record.
type Record struct {
	Format       string           `json:"format"`
	Version      string           `json:"version"`
	Digest       digest.Algorithm `json:"digest"`
	Changes      []Entry          `json:"changes,omitempty"`
	ChangesEntry string           `json:"changesEntry,omitempty"`
}

// Entry is one change of a Record. Digest is the hex digest of the target
// content; it is empty for Remove.
type Entry struct {
	Path   string       `json:"path"`
	Change changes.Kind `json:"change"`
	Digest string       `json:"digest,omitempty"`
}

// NewRecord serializes set in sorted path order.
func NewRecord(set changes.Set, alg digest.Algorithm) Record {
	rec := Record{Format: FormatName, Version: FormatVersion, Digest: alg}
	for _, p := range set.Paths() {
		c := set[p]
		e := Entry{Path: p, Change: c.Kind}
		if !c.Digest.IsZero() {
			e.Digest = c.Digest.String()
		}
		rec.Changes = append(rec.Changes, e)
	}
	return rec
}

// header returns r without its change list, pointing at ChangesEntry.
func (r Record) header() Record {
	return Record{Format: r.Format, Version: r.Version, Digest: r.Digest, ChangesEntry: ChangesEntry}
}

// check verifies the format name and that the version is one this reader
// understands.
func (r Record) check() error {
	if r.Format != FormatName {
		return errors.Errorf("unknown archive format %q", r.Format)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(r.Version)
	if err != nil {
		return errors.Wrapf(err, "invalid record version %q", r.Version)
	}
	if !constraint.Check(v) {
		return errors.Errorf("record version %s is not supported (want %s)", r.Version, SupportedVersions)
	}
	if _, err := digest.ParseAlgorithm(string(r.Digest)); err != nil || r.Digest == "" {
		return errors.Errorf("unsupported digest algorithm %q", r.Digest)
	}
	return nil
}

// Set rebuilds the change set. Duplicate paths are rejected.
func (r Record) Set() (changes.Set, error) {
	set := make(changes.Set, len(r.Changes))
	for _, e := range r.Changes {
		if _, dup := set[e.Path]; dup {
			return nil, errors.Errorf("duplicate entry for %q", e.Path)
		}
		c := changes.Change{Kind: e.Change}
		if e.Digest != "" {
			d, err := digest.Parse(e.Digest)
			if err != nil {
				return nil, err
			}
			c.Digest = d
		}
		set[e.Path] = c
	}
	return set, nil
}
