// Package ziputil holds the zip conventions of patch archives: stored
// (uncompressed) entries, a fixed modification time for reproducible output,
// and the mapping between workspace paths and payload entry names.
package ziputil

import (
	"archive/zip"
	"encoding/json"
	"io"
	"math"
	"strings"
	"time"

	"doctor-diff/internal/errors"
)

// FixedZipTime ensures byte-for-byte reproducible archives (1980-01-01 UTC).
var FixedZipTime = time.Unix(315532800, 0).UTC()

// MaxCommentLen is the largest comment a zip end-of-central-directory record
// can hold.
const MaxCommentLen = math.MaxUint16

// BlobPrefix is the directory under which file payloads are stored.
const BlobPrefix = "files/"

// BlobName returns the entry name holding the bytes of a workspace path.
func BlobName(path string) string {
	return BlobPrefix + path
}

// PathFromBlob is the inverse of BlobName.
func PathFromBlob(name string) (string, bool) {
	if !strings.HasPrefix(name, BlobPrefix) || len(name) == len(BlobPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, BlobPrefix), true
}

// CreateStored adds an uncompressed entry with fixed timestamp and mode.
func CreateStored(zw *zip.Writer, name string) (io.Writer, error) {
	h := &zip.FileHeader{Name: name, Method: zip.Store}
	h.SetMode(0o644)
	h.Modified = FixedZipTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", name)
	}
	return w, nil
}

// WriteJSON writes an indented JSON entry.
func WriteJSON(zw *zip.Writer, name string, v any) error {
	w, err := CreateStored(zw, name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return nil
}

// CopyFromReader streams r into a new stored entry through buf, so whole
// files are never buffered.
func CopyFromReader(zw *zip.Writer, name string, r io.Reader, buf []byte) error {
	w, err := CreateStored(zw, name)
	if err != nil {
		return err
	}
	if _, err := io.CopyBuffer(w, struct{ io.Reader }{r}, buf); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return nil
}

// Index maps entry names to files of an opened archive.
func Index(files []*zip.File) map[string]*zip.File {
	m := make(map[string]*zip.File, len(files))
	for _, f := range files {
		m[f.Name] = f
	}
	return m
}
