// Package patch implements the request / create / apply / inspect operations
// on a workspace directory.
//
// A client runs Request to record the digests of its workspace. The reference
// side runs Create with that hashes file: its own workspace is the target
// state and the archive moves the client there. The client then runs Apply.
package patch

import (
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"doctor-diff/internal/bundle"
	"doctor-diff/internal/changes"
	"doctor-diff/internal/diff"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/manifest"
	"doctor-diff/internal/report"
	"doctor-diff/internal/validate"
	"doctor-diff/internal/walkwalk"
)

// Options are shared by all operations.
type Options struct {
	// Algorithm is used for snapshots and hashes files. Apply and Inspect use
	// the algorithm recorded in the archive instead.
	Algorithm digest.Algorithm
	Exclude   []string
	Workers   int
	Observer  report.Observer
}

func (o Options) snapshot() walkwalk.Options {
	return walkwalk.Options{
		Algorithm: o.alg(),
		Exclude:   o.Exclude,
		Workers:   o.Workers,
		Observer:  o.Observer,
	}
}

func (o Options) alg() digest.Algorithm {
	if o.Algorithm == "" {
		return digest.Default
	}
	return o.Algorithm
}

// workspace opens dir, which must be an existing directory.
func workspace(dir string) (billy.Filesystem, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, errors.IOf(err, "workspace %s", dir)
	}
	if !st.IsDir() {
		return nil, errors.IOf(errors.New("not a directory"), "workspace %s", dir)
	}
	return osfs.New(dir), nil
}

// Snapshot hashes every regular file of the workspace.
func Snapshot(dir string, opts Options) (manifest.Manifest, error) {
	fsys, err := workspace(dir)
	if err != nil {
		return nil, err
	}
	return walkwalk.Snapshot(fsys, opts.snapshot())
}

// Request snapshots the workspace and writes the manifest to hashesOut.
func Request(dir, hashesOut string, opts Options) (manifest.Manifest, error) {
	m, err := Snapshot(dir, opts)
	if err != nil {
		return nil, err
	}
	if err := manifest.Save(hashesOut, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Create reads the client manifest from hashesIn, snapshots the workspace as
// the target state and writes the archive that turns the former into the
// latter. The returned set is what the archive carries.
func Create(dir, hashesIn, archiveOut string, opts Options) (changes.Set, error) {
	fsys, err := workspace(dir)
	if err != nil {
		return nil, err
	}
	current, err := manifest.Load(hashesIn, opts.alg())
	if err != nil {
		return nil, err
	}
	if err := validate.Manifest(current, opts.alg()); err != nil {
		return nil, errors.Serializationf(err, "hashes file %s", hashesIn)
	}
	target, err := walkwalk.Snapshot(fsys, opts.snapshot())
	if err != nil {
		return nil, err
	}
	// Excluded paths are outside the comparison on both sides.
	current = walkwalk.NewMatcher(opts.Exclude).Filter(current)
	set := changes.Diff(current, target)
	err = bundle.Write(fsys, set, archiveOut, bundle.WriteOptions{
		Algorithm: opts.alg(),
		Observer:  opts.Observer,
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Apply replays the archive onto the workspace. The directory is created if
// it does not exist yet.
func Apply(dir, archiveIn string, opts Options) (bundle.Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return bundle.Result{}, errors.IOf(err, "workspace %s", dir)
	}
	return bundle.Apply(osfs.New(dir), archiveIn, bundle.ApplyOptions{Observer: opts.Observer})
}

// Inspection describes an archive without applying it.
type Inspection struct {
	Record   bundle.Record
	Summary  changes.Summary
	Previews []bundle.Preview
}

// Inspect reads the archive metadata. With withDiff set, every payload is
// also rendered as a unified diff against the workspace.
func Inspect(dir, archiveIn string, withDiff bool, opt diff.Options) (Inspection, error) {
	a, err := bundle.Open(archiveIn)
	if err != nil {
		return Inspection{}, err
	}
	defer a.Close()

	ins := Inspection{Record: a.Record(), Summary: a.Set().Summary()}
	if !withDiff {
		return ins, nil
	}
	fsys, err := workspace(dir)
	if err != nil {
		return Inspection{}, err
	}
	if ins.Previews, err = a.Previews(fsys, opt); err != nil {
		return Inspection{}, err
	}
	return ins, nil
}
