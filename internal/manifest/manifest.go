// Package manifest holds the Manifest type (relative path -> content digest)
// and the on-disk "hashes file" that carries a Manifest between the request
// and create steps.
//
// The hashes file is pretty-printed JSON with sorted keys:
//
//	{
//	  "a.txt": "2cf24dba5fb0...",
//	  "dir/b.bin": "9f86d081884c..."
//	}
//
// Saves are atomic: the JSON goes to a temp file in the target directory which
// is then renamed over the destination.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/sortutil"
)

// Manifest maps slash-separated, workspace-relative file paths to digests.
// Directories are never entries.
type Manifest map[string]digest.Digest

// Paths returns the manifest keys in sorted order.
func (m Manifest) Paths() []string {
	return sortutil.SortedKeys(m)
}

// Equal reports whether m and o list the same paths with the same digests.
func (m Manifest) Equal(o Manifest) bool {
	if len(m) != len(o) {
		return false
	}
	for p, d := range m {
		od, ok := o[p]
		if !ok || od != d {
			return false
		}
	}
	return true
}

// Load reads a hashes file. Digest lengths are checked against alg so a file
// produced with a different algorithm is rejected instead of diffing as
// "everything changed".
func Load(path string, alg digest.Algorithm) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOf(err, "read hashes file %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Serializationf(err, "decode hashes file %s", path)
	}
	if m == nil {
		return nil, errors.Serializationf(errors.New("expected a JSON object"), "decode hashes file %s", path)
	}
	for p, d := range m {
		if !alg.Valid(d) {
			return nil, errors.Serializationf(
				errors.Errorf("digest of %q has %d bytes, %s produces %d", p, d.Len(), alg, alg.Size()),
				"decode hashes file %s", path)
		}
	}
	return m, nil
}

// Save writes m to path atomically, creating the parent directory if needed.
func Save(path string, m Manifest) error {
	if m == nil {
		m = Manifest{}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.IOf(err, "create %s", dir)
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return errors.IOf(err, "create temp file in %s", dir)
	}
	tmp := f.Name()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Serializationf(err, "encode hashes file %s", path)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.IOf(err, "sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.IOf(err, "close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.IOf(err, "rename %s", tmp)
	}
	return nil
}
