// Package fileutil holds the file copy and locking helpers used when
// session folders are written.
package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is created inside a session folder while it is being written.
const LockFileName = ".neuroscope.lock"

const lockRetryDelay = 50 * time.Millisecond

// ErrSameFile is returned when a copy's source and destination are one file.
var ErrSameFile = errors.New("source and destination are the same file")

// SamePath reports whether a and b name the same existing file or directory.
// A missing b is never the same as a.
func SamePath(a, b string) (bool, error) {
	aInfo, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bInfo, err := os.Stat(b)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return os.SameFile(aInfo, bInfo), nil
}

func checkDistinct(src, dst string) error {
	same, err := SamePath(src, dst)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("copy %s to %s: %w", src, dst, ErrSameFile)
	}
	return nil
}

// CopyFile streams src to dst, replacing dst if it exists.
func CopyFile(src, dst string) error {
	if err := checkDistinct(src, dst); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// Removes dst on mismatch. Used for raw .dat files where silent truncation
// would corrupt every later frame.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if err := checkDistinct(src, dst); err != nil {
		return err
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return errors.New("copy hash mismatch: file corrupted during copy")
	}

	return nil
}

// FolderLock is an exclusive advisory lock on a session folder.
type FolderLock struct {
	flock *flock.Flock
	path  string
}

// LockFolder creates folder if needed and blocks until the folder lock is
// held or ctx is done.
func LockFolder(ctx context.Context, folder string) (*FolderLock, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create folder %s: %w", folder, err)
	}
	path := filepath.Join(folder, LockFileName)
	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", path, ctx.Err())
	}
	return &FolderLock{flock: fl, path: path}, nil
}

// Path returns the lock file location.
func (l *FolderLock) Path() string {
	return l.path
}

// Unlock releases the lock. The lock file is left in place.
func (l *FolderLock) Unlock() error {
	if l == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
