package bundle

import (
	"archive/zip"
	"encoding/json"
	"io"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/validate"
	"doctor-diff/internal/ziputil"
)

// ErrMissingBlob is reported when the record lists an Add/Update path whose
// payload entry is absent from the archive.
var ErrMissingBlob = errors.New("payload missing from archive")

// Archive is an opened patch archive.
type Archive struct {
	zr      *zip.ReadCloser
	rec     Record
	alg     digest.Algorithm
	set     changes.Set
	entries map[string]*zip.File
	blobs   map[string]*zip.File // by workspace path
}

// Open reads and validates the metadata of the archive at path. A file that
// cannot be read is an I/O error; a file that is not a zip or whose record is
// missing, malformed or of an unsupported version is a serialization error.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) {
			return nil, errors.Serializationf(err, "open archive %s", path)
		}
		return nil, errors.IOf(err, "open archive %s", path)
	}
	a := &Archive{zr: zr, entries: ziputil.Index(zr.File), blobs: blobIndex(zr.File)}
	if err := a.load(); err != nil {
		_ = zr.Close()
		return nil, errors.Wrapf(err, "archive %s", path)
	}
	return a, nil
}

func blobIndex(files []*zip.File) map[string]*zip.File {
	m := make(map[string]*zip.File, len(files))
	for _, f := range files {
		if p, ok := ziputil.PathFromBlob(f.Name); ok {
			m[p] = f
		}
	}
	return m
}

func (a *Archive) load() error {
	if a.zr.Comment == "" {
		return errors.Serialization(errors.New("no metadata record in archive comment"), "read record")
	}
	rec, err := decodeRecord([]byte(a.zr.Comment))
	if err != nil {
		return err
	}
	if rec.ChangesEntry != "" {
		if rec, err = a.readSpilled(rec.ChangesEntry); err != nil {
			return err
		}
	}
	set, err := rec.Set()
	if err != nil {
		return errors.Serialization(err, "decode changes")
	}
	if err := validate.ChangeSet(set, rec.Digest); err != nil {
		return errors.Serialization(err, "invalid changes")
	}
	a.rec, a.alg, a.set = rec, rec.Digest, set
	return nil
}

func decodeRecord(b []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, errors.Serialization(err, "decode record")
	}
	alg, err := digest.ParseAlgorithm(string(rec.Digest))
	if err == nil {
		rec.Digest = alg
	}
	if err := rec.check(); err != nil {
		return Record{}, errors.Serialization(err, "check record")
	}
	return rec, nil
}

func (a *Archive) readSpilled(name string) (Record, error) {
	f := a.entries[name]
	if f == nil {
		return Record{}, errors.Serializationf(errors.New("entry not found"), "read %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return Record{}, errors.IOf(err, "open %s", name)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return Record{}, errors.IOf(err, "read %s", name)
	}
	rec, err := decodeRecord(b)
	if err != nil {
		return Record{}, err
	}
	if rec.ChangesEntry != "" {
		return Record{}, errors.Serializationf(errors.New("nested changes entry"), "read %s", name)
	}
	return rec, nil
}

// Record returns the metadata record. For spilled records this is the full
// record read from ChangesEntry.
func (a *Archive) Record() Record { return a.rec }

// Algorithm returns the digest algorithm named by the record.
func (a *Archive) Algorithm() digest.Algorithm { return a.alg }

// Set returns the change set carried by the archive.
func (a *Archive) Set() changes.Set { return a.set }

// HasBlob reports whether the payload of path is present.
func (a *Archive) HasBlob(path string) bool {
	_, ok := a.blobs[path]
	return ok
}

// Blob opens the payload of path. It returns ErrMissingBlob when the entry is
// absent.
func (a *Archive) Blob(path string) (io.ReadCloser, error) {
	f := a.blobs[path]
	if f == nil {
		return nil, ErrMissingBlob
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.IOf(err, "open blob %s", path)
	}
	return rc, nil
}

// blobSize returns the uncompressed payload size, or -1 when absent.
func (a *Archive) blobSize(path string) int64 {
	f := a.blobs[path]
	if f == nil {
		return -1
	}
	return int64(f.UncompressedSize64)
}

func (a *Archive) Close() error {
	return a.zr.Close()
}
