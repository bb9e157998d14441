package bundle

import (
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/report"
)

// ApplyOptions controls Apply.
type ApplyOptions struct {
	Observer report.Observer
}

// Result summarizes an Apply run.
type Result struct {
	Written  int
	Removed  int
	Warnings []report.Warning
}

// Apply replays the archive at in against dst. See (*Archive).Apply.
func Apply(dst billy.Filesystem, in string, opts ApplyOptions) (Result, error) {
	a, err := Open(in)
	if err != nil {
		return Result{}, err
	}
	defer a.Close()
	return a.Apply(dst, opts)
}

// Apply replays the archive's changes against dst in two passes:
//
//   - Remove, in sorted path order: the file is deleted. A failed delete
//     (including a file that is already gone) is a warning. Parent
//     directories left empty by a delete are removed too, so a directory can
//     be replaced by a file of the same name.
//   - Add/Update, in sorted path order: the payload is streamed into the
//     file, creating parent directories and truncating existing content. A
//     missing payload is a warning and the path is skipped.
//
// Application is not atomic; changes applied before a fatal error stay.
// Written bytes are re-hashed and a digest mismatch is reported as a warning.
func (a *Archive) Apply(dst billy.Filesystem, opts ApplyOptions) (Result, error) {
	ap := &applier{
		arch: a,
		dst:  dst,
		obs:  report.OrNop(opts.Observer),
		buf:  make([]byte, digest.ChunkSize),
	}
	paths := a.set.Paths()
	for _, p := range paths {
		if a.set[p].Kind == changes.Remove {
			ap.remove(p)
		}
	}
	for _, p := range paths {
		if c := a.set[p]; c.Kind.HasPayload() {
			if err := ap.extract(p, c.Digest); err != nil {
				return ap.res, err
			}
		}
	}
	return ap.res, nil
}

type applier struct {
	arch *Archive
	dst  billy.Filesystem
	obs  report.Observer
	buf  []byte
	res  Result
}

func (ap *applier) warn(op report.Op, p string, err error) {
	w := report.Warning{Op: op, Path: p, Err: err}
	ap.res.Warnings = append(ap.res.Warnings, w)
	ap.obs.Warn(w)
}

func (ap *applier) extract(p string, want digest.Digest) error {
	rc, err := ap.arch.Blob(p)
	if errors.Is(err, ErrMissingBlob) {
		ap.warn(report.OpExtract, p, err)
		return nil
	}
	if err != nil {
		return err
	}
	defer rc.Close()

	if dir := path.Dir(p); dir != "." {
		if err := ap.dst.MkdirAll(dir, 0o755); err != nil {
			return errors.IOf(err, "create %s", dir)
		}
	}
	got, err := ap.writeFile(p, rc)
	if err != nil {
		return err
	}
	ap.res.Written++
	ap.obs.Progress(report.OpExtract, p)
	if got != want {
		ap.warn(report.OpExtract, p, errors.Errorf("written digest %s, expected %s", got, want))
	}
	return nil
}

func (ap *applier) writeFile(p string, r io.Reader) (digest.Digest, error) {
	f, err := ap.dst.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return digest.Digest{}, errors.IOf(err, "create %s", p)
	}
	h := ap.arch.alg.New()
	if _, err := io.CopyBuffer(io.MultiWriter(f, h), struct{ io.Reader }{r}, ap.buf); err != nil {
		_ = f.Close()
		return digest.Digest{}, errors.IOf(err, "write %s", p)
	}
	if err := f.Close(); err != nil {
		return digest.Digest{}, errors.IOf(err, "close %s", p)
	}
	return h.Digest(), nil
}

func (ap *applier) remove(p string) {
	if err := ap.dst.Remove(p); err != nil {
		ap.warn(report.OpRemove, p, err)
		return
	}
	ap.res.Removed++
	ap.obs.Progress(report.OpRemove, p)
	ap.pruneParents(p)
}

// pruneParents removes the directories above p that are now empty, stopping
// at the first one that still has entries.
func (ap *applier) pruneParents(p string) {
	for dir := path.Dir(p); dir != "."; dir = path.Dir(dir) {
		entries, err := ap.dst.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := ap.dst.Remove(dir); err != nil {
			return
		}
	}
}
