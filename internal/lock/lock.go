// Package lock implements the advisory per-workspace file lock described in
// spec.md §4.3: `<state_dir>/<id>.lock`, preventing concurrent lifecycle
// mutation on one workspace. Distinct from internal/featurelock, which pins
// feature versions, not workspace mutation.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/util"
)

// Lock is a held advisory lock on one workspace's lifecycle operations.
// Release must be called to unlock and close the underlying file.
type Lock struct {
	file *os.File
	path string
}

func lockPath(id string) (string, error) {
	dir, err := util.StateDir()
	if err != nil {
		return "", err
	}
	if err := util.EnsureDir(dir, 0755); err != nil {
		return "", devcerrors.Internal(err)
	}
	return filepath.Join(dir, id+".lock"), nil
}

// Acquire takes the non-blocking exclusive lock for workspace id. On
// success the caller's pid is written into the lock file so a blocked
// second caller can report who holds it. On contention it returns a
// *devcerrors.DevcError with Code CodeBusy and the holder's pid in Context.
func Acquire(id string) (*Lock, error) {
	p, err := lockPath(id)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, devcerrors.Internal(err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		heldBy := readHolderPID(f)
		f.Close()
		return nil, devcerrors.Busy(heldBy)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, devcerrors.Internal(err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		f.Close()
		return nil, devcerrors.Internal(err)
	}

	return &Lock{file: f, path: p}, nil
}

// readHolderPID best-effort reads the pid written by whoever holds the lock.
func readHolderPID(f *os.File) int {
	buf := make([]byte, 32)
	n, _ := f.ReadAt(buf, 0)
	pid, _ := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	return pid
}

// Release unlocks and closes the lock file. The file itself is left on disk
// (next Acquire reuses and truncates it) so there is no race between unlink
// and a concurrent Acquire opening the same inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return devcerrors.Internal(fmt.Errorf("unlock %s: %w", l.path, err))
	}
	return l.file.Close()
}
