package errors

import (
	"os"
	"strings"
	"testing"
)

func TestKindsAreDetectableThroughWrapping(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")
	err := Wrap(IO(statErr, "snapshot"), "request")
	if !IsIO(err) {
		t.Fatalf("expected I/O kind, got %v", err)
	}
	if IsSerialization(err) {
		t.Fatalf("I/O error reported as serialization: %v", err)
	}
	if !Is(err, os.ErrNotExist) {
		t.Fatalf("underlying error lost: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "request: snapshot: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestSerializationf(t *testing.T) {
	err := Serializationf(New("bad json"), "decode %s", "hashes.json")
	if !IsSerialization(err) || IsIO(err) {
		t.Fatalf("wrong kind: %v", err)
	}
	if err.Error() != "decode hashes.json: bad json" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNilStaysNil(t *testing.T) {
	if IO(nil, "x") != nil || Serialization(nil, "y") != nil {
		t.Fatalf("nil error must stay nil")
	}
}
