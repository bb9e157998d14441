// Package walkwalk snapshots a workspace into a manifest.
//
// The walk keeps an explicit stack of directories instead of recursing, so
// deep trees cannot exhaust the goroutine stack. Regular files are streamed
// through the configured digest algorithm; directories only contribute their
// children. Symbolic links and special files are skipped and reported.
package walkwalk

import (
	"io/fs"
	"path"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"doctor-diff/internal/digest"
	"doctor-diff/internal/errors"
	"doctor-diff/internal/manifest"
	"doctor-diff/internal/report"
)

// Options controls a snapshot.
type Options struct {
	// Algorithm defaults to digest.Default.
	Algorithm digest.Algorithm
	// Exclude holds gitignore-style patterns matched against relative paths.
	Exclude []string
	// Workers > 1 hashes files concurrently. The result is the same manifest.
	Workers int
	// Observer receives hash progress and skip warnings. With Workers > 1 it
	// is called from several goroutines.
	Observer report.Observer
}

type walkState struct {
	fsys    billy.Filesystem
	exclude *Matcher
	obs     report.Observer
	stack   []string
	regular []string
}

// Snapshot walks every directory reachable from the root of fsys and returns
// the digest of each regular file, keyed by slash-separated relative path.
// Any listing, open or read failure aborts the snapshot.
func Snapshot(fsys billy.Filesystem, opts Options) (manifest.Manifest, error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = digest.Default
	}
	ws := &walkState{
		fsys:    fsys,
		exclude: NewMatcher(opts.Exclude),
		obs:     report.OrNop(opts.Observer),
		stack:   []string{"."},
	}
	if err := ws.collect(); err != nil {
		return nil, err
	}
	return ws.hashAll(alg, opts.Workers)
}

func (ws *walkState) collect() error {
	for len(ws.stack) > 0 {
		dir := ws.stack[len(ws.stack)-1]
		ws.stack = ws.stack[:len(ws.stack)-1]

		infos, err := ws.fsys.ReadDir(dir)
		if err != nil {
			return errors.IOf(err, "list %s", dir)
		}
		for _, fi := range infos {
			name := fi.Name()
			if name == "" || name == "." || name == ".." {
				continue
			}
			rel := name
			if dir != "." {
				rel = path.Join(dir, name)
			}
			ws.visit(rel, fi.Mode())
		}
	}
	return nil
}

func (ws *walkState) visit(rel string, mode fs.FileMode) {
	switch {
	case mode.IsDir():
		if ws.exclude.Excluded(rel, true) {
			return
		}
		ws.stack = append(ws.stack, rel)
	case mode.IsRegular():
		if ws.exclude.Excluded(rel, false) {
			return
		}
		ws.regular = append(ws.regular, rel)
	default:
		ws.obs.Warn(report.Warning{
			Op:   report.OpSkip,
			Path: rel,
			Err:  errors.Errorf("not a regular file (%s)", mode.Type()),
		})
	}
}

func (ws *walkState) hashAll(p digest.Provider, workers int) (manifest.Manifest, error) {
	sums := make([]digest.Digest, len(ws.regular))
	if workers <= 1 {
		for i, rel := range ws.regular {
			d, err := ws.hashFile(p, rel)
			if err != nil {
				return nil, err
			}
			sums[i] = d
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, rel := range ws.regular {
			i, rel := i, rel
			g.Go(func() error {
				d, err := ws.hashFile(p, rel)
				sums[i] = d
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	m := make(manifest.Manifest, len(ws.regular))
	for i, rel := range ws.regular {
		m[rel] = sums[i]
	}
	return m, nil
}

func (ws *walkState) hashFile(p digest.Provider, rel string) (digest.Digest, error) {
	f, err := ws.fsys.Open(rel)
	if err != nil {
		return digest.Digest{}, errors.IOf(err, "open %s", rel)
	}
	defer f.Close()
	d, err := p.Sum(f)
	if err != nil {
		return digest.Digest{}, errors.IOf(err, "read %s", rel)
	}
	ws.obs.Progress(report.OpHash, rel)
	return d, nil
}
