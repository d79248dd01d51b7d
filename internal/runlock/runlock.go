// Package runlock enforces the one-writer-per-table rule with an advisory
// file lock. Two concurrent runs over the same table would reprocess the
// same unprocessed records; the lock refuses the second run up front.
package runlock

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

// Lock is a per-table advisory lock backed by flock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New creates a lock for the given table under dir. The directory is
// created if missing.
func New(dir, table string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "runlock: create lock dir %s", dir)
	}
	path := filepath.Join(dir, "enrich-"+table+".lock")
	return &Lock{path: path, fl: flock.New(path)}, nil
}

// Acquire takes the lock without blocking. It fails when another run
// already holds it.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return eris.Wrapf(err, "runlock: acquire %s", l.path)
	}
	if !ok {
		return eris.Errorf("runlock: another enrichment run holds %s", l.path)
	}
	return nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return eris.Wrapf(l.fl.Unlock(), "runlock: release %s", l.path)
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
