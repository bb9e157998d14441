// Package digest provides the content digest used to detect changed files.
//
// A Digest is an opaque, immutable byte string with value equality and a
// canonical lowercase-hex rendering. Algorithms stream their input through a
// fixed-size buffer so memory use does not depend on file size.
package digest

import (
	"encoding/hex"
	"strings"

	ocidigest "github.com/opencontainers/go-digest"

	"doctor-diff/internal/errors"
)

// Digest is the output of an Algorithm. The zero value means "no digest".
// Digests are comparable with ==.
type Digest struct {
	sum string
}

// FromBytes wraps raw digest bytes.
func FromBytes(b []byte) Digest {
	return Digest{sum: string(b)}
}

// Parse accepts the canonical hex form ("9f86d0...") or the prefixed form
// ("sha256:9f86d0...", "xxh3-128:6b1d..."). Prefixes other than xxh3-128 are
// checked by go-digest, which also verifies the length.
func Parse(s string) (Digest, error) {
	if rest, ok := strings.CutPrefix(s, string(XXH3)+":"); ok {
		d, err := Parse(rest)
		if err == nil && d.Len() != XXH3.Size() {
			err = errors.Serializationf(errors.Errorf("%d bytes, want %d", d.Len(), XXH3.Size()), "parse digest %q", s)
		}
		return d, err
	}
	if strings.Contains(s, ":") {
		d, err := ocidigest.Parse(s)
		if err != nil {
			return Digest{}, errors.Serializationf(err, "parse digest %q", s)
		}
		s = d.Encoded()
	}
	if s == "" || strings.ToLower(s) != s {
		return Digest{}, errors.Serializationf(errors.New("not lowercase hex"), "parse digest %q", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, errors.Serializationf(err, "parse digest %q", s)
	}
	return FromBytes(b), nil
}

// IsZero reports whether d holds no digest.
func (d Digest) IsZero() bool { return d.sum == "" }

// Len returns the digest size in bytes.
func (d Digest) Len() int { return len(d.sum) }

// Bytes returns a copy of the raw digest.
func (d Digest) Bytes() []byte { return []byte(d.sum) }

// Equal reports whether d and o are the same digest.
func (d Digest) Equal(o Digest) bool { return d.sum == o.sum }

// String renders d as lowercase hex.
func (d Digest) String() string { return hex.EncodeToString([]byte(d.sum)) }

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}
