package bundle

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/diff"
)

func TestPreviews(t *testing.T) {
	ref := memfs.New()
	target := populate(t, ref, map[string]string{
		"notes.txt": "one\ntwo\nthree\n",
		"new.txt":   "fresh\n",
		"blob.bin":  "\x00\x01\x02",
	})
	client := memfs.New()
	current := populate(t, client, map[string]string{
		"notes.txt": "one\n2\nthree\n",
		"blob.bin":  "\x00",
		"old.txt":   "x",
	})

	out := archivePath(t)
	require.NoError(t, Write(ref, changes.Diff(current, target), out, WriteOptions{}))
	a, err := Open(out)
	require.NoError(t, err)
	defer a.Close()

	pvs, err := a.Previews(client, diff.Options{})
	require.NoError(t, err)
	require.Len(t, pvs, 3)

	byPath := map[string]Preview{}
	for _, pv := range pvs {
		byPath[pv.Path] = pv
	}
	require.True(t, byPath["blob.bin"].Binary)
	require.Contains(t, byPath["new.txt"].Body, "--- /dev/null")
	require.Contains(t, byPath["new.txt"].Body, "+fresh\n")
	require.Equal(t, changes.Update, byPath["notes.txt"].Kind)
	require.Contains(t, byPath["notes.txt"].Body, "-2\n")
	require.Contains(t, byPath["notes.txt"].Body, "+two\n")

	pv, err := a.Preview(client, "notes.txt", diff.Options{MaxBytes: 4})
	require.NoError(t, err)
	require.True(t, pv.Oversize)
}

func TestPreviewCountsWorkspaceSizeTowardLimit(t *testing.T) {
	ref := memfs.New()
	target := populate(t, ref, map[string]string{"log.txt": "tail\n"})
	client := memfs.New()
	current := populate(t, client, map[string]string{"log.txt": strings.Repeat("line\n", 1000)})

	out := archivePath(t)
	require.NoError(t, Write(ref, changes.Diff(current, target), out, WriteOptions{}))
	a, err := Open(out)
	require.NoError(t, err)
	defer a.Close()

	// The payload alone fits; the workspace copy pushes it over the limit.
	pv, err := a.Preview(client, "log.txt", diff.Options{MaxBytes: 64})
	require.NoError(t, err)
	require.True(t, pv.Oversize)
	require.Contains(t, pv.Body, "diff omitted")

	pv, err = a.Preview(client, "log.txt", diff.Options{})
	require.NoError(t, err)
	require.False(t, pv.Oversize)
	require.Contains(t, pv.Body, "+tail\n")
}
