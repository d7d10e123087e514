package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"trellis/internal/services"
)

const lockFileName = ".trellis.lock"

// Lock guards the catalog against concurrent maintainer processes. The
// catalog's consistency model assumes a single writer at a time.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the catalog lock without blocking. A held lock means
// another trellis process is mutating the catalog and this one must not.
func (s *Store) AcquireLock() (*Lock, error) {
	fl := flock.New(s.lockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "catalog", "lock",
			fmt.Sprintf("another trellis process holds the catalog lock (%s)", fl.Path()), nil)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the catalog lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, lockFileName)
}
