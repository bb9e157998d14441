package patch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"doctor-diff/internal/changes"
	"doctor-diff/internal/diff"
	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/report"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func TestRequestCreateApply(t *testing.T) {
	for _, alg := range digest.Algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			client, ref, tmp := t.TempDir(), t.TempDir(), t.TempDir()
			writeTree(t, client, map[string]string{
				"game.cfg":        "fov=90\n",
				"data/old.pak":    "old",
				"data/shared.pak": "same",
				"logs/run.log":    "noise",
			})
			writeTree(t, ref, map[string]string{
				"game.cfg":          "fov=100\n",
				"data/shared.pak":   "same",
				"data/new/maps.pak": "maps",
			})
			opts := Options{Algorithm: alg, Exclude: []string{"logs/"}, Workers: 3}
			hashes := filepath.Join(tmp, "hashes.json")
			archive := filepath.Join(tmp, "patch.zip")

			m, err := Request(client, hashes, opts)
			require.NoError(t, err)
			require.Len(t, m, 3, "excluded directory must not be hashed")

			set, err := Create(ref, hashes, archive, opts)
			require.NoError(t, err)
			require.Equal(t, changes.Summary{Added: 1, Updated: 1, Removed: 1}, set.Summary())

			res, err := Apply(client, archive, opts)
			require.NoError(t, err)
			require.Equal(t, 2, res.Written)
			require.Equal(t, 1, res.Removed)
			require.Empty(t, res.Warnings)

			want, err := Snapshot(ref, opts)
			require.NoError(t, err)
			got, err := Snapshot(client, opts)
			require.NoError(t, err)
			if d := cmp.Diff(want, got); d != "" {
				t.Fatalf("client differs from reference (-want +got):\n%s", d)
			}
			_, err = os.Stat(filepath.Join(client, "logs", "run.log"))
			require.NoError(t, err, "excluded files are left alone")
		})
	}
}

func TestCreateWithUnchangedWorkspaceIsEmpty(t *testing.T) {
	ws, tmp := t.TempDir(), t.TempDir()
	writeTree(t, ws, map[string]string{"a": "1", "b/c": "2"})
	hashes := filepath.Join(tmp, "h.json")
	_, err := Request(ws, hashes, Options{})
	require.NoError(t, err)

	set, err := Create(ws, hashes, filepath.Join(tmp, "p.zip"), Options{})
	require.NoError(t, err)
	require.Empty(t, set)

	ins, err := Inspect(ws, filepath.Join(tmp, "p.zip"), true, diff.Options{})
	require.NoError(t, err)
	require.Zero(t, ins.Summary.Total())
	require.Empty(t, ins.Previews)
}

func TestCreateRejectsForeignHashes(t *testing.T) {
	ws, tmp := t.TempDir(), t.TempDir()
	writeTree(t, ws, map[string]string{"a": "1"})
	hashes := filepath.Join(tmp, "h.json")
	_, err := Request(ws, hashes, Options{Algorithm: digest.XXH3})
	require.NoError(t, err)

	_, err = Create(ws, hashes, filepath.Join(tmp, "p.zip"), Options{Algorithm: digest.SHA256})
	require.True(t, errors.IsSerialization(err), "%v", err)

	require.NoError(t, os.WriteFile(hashes, []byte(`{"../escape": "00"}`), 0o644))
	_, err = Create(ws, hashes, filepath.Join(tmp, "p.zip"), Options{})
	require.True(t, errors.IsSerialization(err), "%v", err)
}

func TestMissingWorkspace(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := Request(missing, filepath.Join(t.TempDir(), "h.json"), Options{})
	require.True(t, errors.IsIO(err), "%v", err)
}

func TestInspectWithDiff(t *testing.T) {
	client, ref, tmp := t.TempDir(), t.TempDir(), t.TempDir()
	writeTree(t, client, map[string]string{"readme.txt": "v1\n"})
	writeTree(t, ref, map[string]string{"readme.txt": "v2\n"})
	hashes, archive := filepath.Join(tmp, "h.json"), filepath.Join(tmp, "p.zip")

	_, err := Request(client, hashes, Options{})
	require.NoError(t, err)
	rec := &report.Recorder{}
	_, err = Create(ref, hashes, archive, Options{Observer: rec})
	require.NoError(t, err)
	require.Contains(t, rec.Events(), report.Event{Op: report.OpArchive, Path: "readme.txt"})

	ins, err := Inspect(client, archive, true, diff.Options{})
	require.NoError(t, err)
	require.Equal(t, changes.Summary{Updated: 1}, ins.Summary)
	require.Len(t, ins.Previews, 1)
	require.Contains(t, ins.Previews[0].Body, "-v1\n")
	require.Contains(t, ins.Previews[0].Body, "+v2\n")
}

func TestCreateLeavesClientExcludesAlone(t *testing.T) {
	client, ref, tmp := t.TempDir(), t.TempDir(), t.TempDir()
	writeTree(t, client, map[string]string{".git/HEAD": "ref: main", "app.log": "x", "main.go": "v1"})
	writeTree(t, ref, map[string]string{"main.go": "v2"})
	hashes, archive := filepath.Join(tmp, "h.json"), filepath.Join(tmp, "p.zip")

	// The client hashes everything; only the reference excludes.
	m, err := Request(client, hashes, Options{})
	require.NoError(t, err)
	require.Len(t, m, 3)

	set, err := Create(ref, hashes, archive, Options{Exclude: []string{".git/", "*.log"}})
	require.NoError(t, err)
	require.Equal(t, changes.Summary{Updated: 1}, set.Summary())
	require.Contains(t, set, "main.go")

	res, err := Apply(client, archive, Options{})
	require.NoError(t, err)
	require.Zero(t, res.Removed)
	for _, p := range []string{".git/HEAD", "app.log"} {
		_, err := os.Stat(filepath.Join(client, filepath.FromSlash(p)))
		require.NoError(t, err, p)
	}
}
