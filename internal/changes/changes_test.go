package changes

import (
	"encoding/json"
	"reflect"
	"testing"

	"doctor-diff/internal/digest"
	"doctor-diff/internal/manifest"
)

func d(s string) digest.Digest { return digest.SHA256.SumBytes([]byte(s)) }

func TestDiffUpdateAndAdd(t *testing.T) {
	current := manifest.Manifest{"a.txt": d("hello")}
	target := manifest.Manifest{"a.txt": d("hi"), "b.txt": d("new")}

	got := Diff(current, target)
	want := Set{
		"a.txt": {Kind: Update, Digest: d("hi")},
		"b.txt": {Kind: Add, Digest: d("new")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDiffRemove(t *testing.T) {
	current := manifest.Manifest{"old.txt": d("x"), "keep.txt": d("k")}
	target := manifest.Manifest{"keep.txt": d("k")}

	got := Diff(current, target)
	if len(got) != 1 || got["old.txt"].Kind != Remove || !got["old.txt"].Digest.IsZero() {
		t.Fatalf("got %v", got)
	}
}

func TestDiffEmptyInputs(t *testing.T) {
	if len(Diff(nil, nil)) != 0 {
		t.Fatalf("nil manifests must diff to an empty set")
	}
	got := Diff(nil, manifest.Manifest{"x": d("x")})
	if got["x"].Kind != Add {
		t.Fatalf("got %v", got)
	}
}

func TestSummaryAndPayload(t *testing.T) {
	s := Set{
		"c": {Kind: Remove},
		"b": {Kind: Update, Digest: d("b")},
		"a": {Kind: Add, Digest: d("a")},
	}
	if sum := s.Summary(); sum != (Summary{Added: 1, Updated: 1, Removed: 1}) || sum.Total() != 3 {
		t.Fatalf("summary %+v", sum)
	}
	if got := s.Payload(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("payload %v", got)
	}
	if got := s.Paths(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("paths %v", got)
	}
}

func TestKindText(t *testing.T) {
	b, err := json.Marshal(map[string]Kind{"p": Update})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"p":"Update"}` {
		t.Fatalf("got %s", b)
	}
	var k Kind
	if err := k.UnmarshalText([]byte("Remove")); err != nil || k != Remove {
		t.Fatalf("unmarshal Remove: %v %v", k, err)
	}
	if err := k.UnmarshalText([]byte("Rename")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := Kind(0).MarshalText(); err == nil {
		t.Fatalf("expected error for zero kind")
	}
}
