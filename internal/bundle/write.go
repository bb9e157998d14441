// Package bundle writes and applies patch archives.
//
// An archive is a zip file with this layout:
//
//	<comment>           # metadata Record (JSON): format, version, digest, changes
//	changes.json        # full Record, only when it does not fit in the comment
//	files/<path>        # bytes of every Add/Update path, stored uncompressed
//
// Entries are written in sorted path order with a fixed timestamp, so the
// same workspace and change set always produce the same bytes.
package bundle

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/report"
	"doctor-diff/internal/validate"
	"doctor-diff/internal/ziputil"
)

// WriteOptions controls Write.
type WriteOptions struct {
	// Algorithm must be the one that produced the digests in the set.
	// Defaults to digest.Default.
	Algorithm digest.Algorithm
	Observer  report.Observer
}

// Write archives set, reading Add/Update payloads from src, into the zip file
// out. The archive is assembled in a temporary file next to out and renamed
// into place only when complete; on failure nothing is left at out.
//
// Every payload is re-hashed while it is copied. A file that no longer matches
// the digest recorded in set aborts the write, since the archive would
// otherwise contradict its own metadata.
func Write(src billy.Filesystem, set changes.Set, out string, opts WriteOptions) (err error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = digest.Default
	}
	obs := report.OrNop(opts.Observer)
	if verr := validate.ChangeSet(set, alg); verr != nil {
		return errors.Serialization(verr, "invalid change set")
	}

	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.IOf(err, "create %s", dir)
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(out)+"-")
	if err != nil {
		return errors.IOf(err, "create temp archive in %s", dir)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	zw := zip.NewWriter(f)
	if err := writeRecord(zw, NewRecord(set, alg)); err != nil {
		return err
	}

	buf := make([]byte, digest.ChunkSize)
	for _, p := range set.Payload() {
		if err := archiveFile(zw, src, p, set[p].Digest, alg, buf); err != nil {
			return err
		}
		obs.Progress(report.OpArchive, p)
	}

	if err := zw.Close(); err != nil {
		return errors.IOf(err, "finish %s", tmp)
	}
	if err := f.Sync(); err != nil {
		return errors.IOf(err, "sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.IOf(err, "close %s", tmp)
	}
	if err := os.Rename(tmp, out); err != nil {
		return errors.IOf(err, "rename %s", tmp)
	}
	return nil
}

// writeRecord stores rec in the zip comment, spilling the change list into
// ChangesEntry when the comment would exceed the zip limit.
func writeRecord(zw *zip.Writer, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Serialization(err, "encode record")
	}
	if len(b) > ziputil.MaxCommentLen {
		if err := ziputil.WriteJSON(zw, ChangesEntry, rec); err != nil {
			return errors.IO(err, "write record")
		}
		if b, err = json.Marshal(rec.header()); err != nil {
			return errors.Serialization(err, "encode record header")
		}
	}
	if err := zw.SetComment(string(b)); err != nil {
		return errors.Serialization(err, "set archive comment")
	}
	return nil
}

func archiveFile(zw *zip.Writer, src billy.Filesystem, p string, want digest.Digest, alg digest.Algorithm, buf []byte) error {
	r, err := src.Open(p)
	if err != nil {
		return errors.IOf(err, "open %s", p)
	}
	defer r.Close()

	h := alg.New()
	if err := ziputil.CopyFromReader(zw, ziputil.BlobName(p), io.TeeReader(r, h), buf); err != nil {
		return errors.IOf(err, "archive %s", p)
	}
	if got := h.Digest(); got != want {
		return errors.IOf(errors.Errorf("digest %s, expected %s", got, want), "%s changed since it was hashed", p)
	}
	return nil
}
