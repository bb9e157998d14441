package digest

import (
	_ "crypto/sha256" // registers crypto.SHA256 for go-digest
	"io"
	"strings"

	ocidigest "github.com/opencontainers/go-digest"
	"github.com/zeebo/xxh3"

	"doctor-diff/internal/errors"
)

// ChunkSize is the buffer size used when streaming content through a hash.
const ChunkSize = 10 << 10

// Provider computes the digest of a byte stream.
type Provider interface {
	Sum(r io.Reader) (Digest, error)
}

// Algorithm names a digest function. Algorithm implements Provider.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	XXH3   Algorithm = "xxh3-128"
)

// Default is used when no algorithm is configured.
const Default = SHA256

// Algorithms lists the supported algorithms.
func Algorithms() []Algorithm { return []Algorithm{SHA256, XXH3} }

// ParseAlgorithm resolves a configured algorithm name. "xxh3" is accepted
// as shorthand for xxh3-128.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SHA256):
		return SHA256, nil
	case "xxh3", string(XXH3):
		return XXH3, nil
	}
	return "", errors.Errorf("unknown digest algorithm %q (want sha256 or xxh3-128)", s)
}

// Size returns the digest length in bytes.
func (a Algorithm) Size() int {
	switch a {
	case XXH3:
		return 16
	default:
		return ocidigest.SHA256.Size()
	}
}

// Hasher is an incremental digest computation.
type Hasher interface {
	io.Writer
	Digest() Digest
}

// New starts an incremental digest.
func (a Algorithm) New() Hasher {
	if a == XXH3 {
		return &xxh3Hasher{h: xxh3.New()}
	}
	return &sha256Hasher{d: ocidigest.SHA256.Digester()}
}

// Sum streams r through the algorithm using a ChunkSize buffer.
func (a Algorithm) Sum(r io.Reader) (Digest, error) {
	h := a.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{r}, buf); err != nil {
		return Digest{}, err
	}
	return h.Digest(), nil
}

// SumBytes digests an in-memory value.
func (a Algorithm) SumBytes(b []byte) Digest {
	h := a.New()
	_, _ = h.Write(b)
	return h.Digest()
}

// Valid reports whether d has the length this algorithm produces.
func (a Algorithm) Valid(d Digest) bool {
	return d.Len() == a.Size()
}

type sha256Hasher struct {
	d ocidigest.Digester
}

func (h *sha256Hasher) Write(p []byte) (int, error) { return h.d.Hash().Write(p) }

func (h *sha256Hasher) Digest() Digest { return FromBytes(h.d.Hash().Sum(nil)) }

type xxh3Hasher struct {
	h *xxh3.Hasher
}

func (h *xxh3Hasher) Write(p []byte) (int, error) { return h.h.Write(p) }

func (h *xxh3Hasher) Digest() Digest {
	b := h.h.Sum128().Bytes()
	return FromBytes(b[:])
}

// onlyReader hides WriterTo so CopyBuffer honours the fixed buffer.
type onlyReader struct {
	io.Reader
}
