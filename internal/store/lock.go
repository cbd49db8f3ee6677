package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another process holds the data directory lock.
var ErrLocked = errors.New("data directory is locked by a running tracker")

// Locker is implemented by backends that can be locked across processes.
type Locker interface {
	Lock() (*Lock, error)
}

// Lock is an exclusive advisory lock on the data directory. The kernel
// releases it when the holding process exits.
type Lock struct {
	f *os.File
}

// Lock takes the data directory lock without blocking. It returns ErrLocked
// when another holder exists.
func (f *FileBackend) Lock() (*Lock, error) {
	path := filepath.Join(filepath.Dir(f.path), "store.lock")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("locking data directory: %w", err)
	}
	return &Lock{f: file}, nil
}

// Release drops the lock. It is safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
