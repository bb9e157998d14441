package bundle

import (
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/diff"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/textutil"
)

// Preview is the rendered difference of one archived change against a
// workspace.
type Preview struct {
	Path     string
	Kind     changes.Kind
	Body     string
	Binary   bool
	Oversize bool
	Missing  bool // payload absent from the archive
}

// Previews renders every Add/Update payload of the archive against ws, in
// sorted path order. Remove entries carry no payload and are not rendered.
func (a *Archive) Previews(ws billy.Filesystem, opt diff.Options) ([]Preview, error) {
	var out []Preview
	for _, p := range a.set.Payload() {
		pv, err := a.Preview(ws, p, opt)
		if err != nil {
			return nil, err
		}
		out = append(out, pv)
	}
	return out, nil
}

// Preview renders a unified diff of path from its content in ws to the
// archived payload. A path that is absent from ws, or is not a regular file
// there, is rendered as a creation. Inputs larger than opt.MaxBytes together
// are not read.
func (a *Archive) Preview(ws billy.Filesystem, p string, opt diff.Options) (Preview, error) {
	pv := Preview{Path: p, Kind: a.set[p].Kind}
	size := a.blobSize(p)
	if size < 0 {
		pv.Missing = true
		return pv, nil
	}

	fi, err := ws.Stat(p)
	if err != nil && !os.IsNotExist(err) {
		return pv, errors.IOf(err, "stat %s", p)
	}
	exists := err == nil && fi.Mode().IsRegular()
	if exists {
		size += fi.Size()
	}
	if opt.MaxBytes > 0 && size > int64(opt.MaxBytes) {
		pv.Body, pv.Oversize = diff.Omitted(p, opt), true
		return pv, nil
	}

	rc, err := a.Blob(p)
	if err != nil {
		return pv, err
	}
	defer rc.Close()
	next, err := io.ReadAll(rc)
	if err != nil {
		return pv, errors.IOf(err, "read blob %s", p)
	}
	var prev []byte
	if exists {
		if prev, err = util.ReadFile(ws, p); err != nil {
			return pv, errors.IOf(err, "read %s", p)
		}
	}

	if !textutil.IsText(next) || (exists && !textutil.IsText(prev)) {
		pv.Binary = true
		return pv, nil
	}
	next = textutil.EnsureTrailingLF(textutil.NormalizeUTF8LF(next))
	if !exists {
		pv.Body, pv.Oversize = diff.Added(p, next, opt)
		return pv, nil
	}
	prev = textutil.EnsureTrailingLF(textutil.NormalizeUTF8LF(prev))
	pv.Body, pv.Oversize = diff.Unified(p, prev, next, opt)
	return pv, nil
}
