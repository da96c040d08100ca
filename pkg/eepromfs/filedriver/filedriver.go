// Package filedriver implements eepromfs.Storage over a regular file,
// used by cmd/eepromfsctl to persist an EEPROM image across invocations.
//
// Locking and atomic persistence are grounded on the teacher's
// pkg/fs-adjacent lock.go: an exclusive flock(2) on a sibling ".lock"
// file guards concurrent access from other processes, and every flush to
// disk goes through natefinch/atomic so a crash mid-write never leaves a
// torn image (SPEC_FULL.md §B).
package filedriver

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

const filePerms = 0o600

// LockTimeout bounds how long Open waits to acquire the image's lock
// file. A var, not a const, so tests can shrink it rather than paying
// the full timeout on every contended-lock assertion.
var LockTimeout = 5 * time.Second

// Driver mirrors an eepromfs medium in memory, backed by a file on disk.
// It is not safe for concurrent use from multiple goroutines within one
// process (matching eepromfs.FS's single-threaded contract, spec.md §5);
// the flock only arbitrates across separate processes sharing one image
// file.
type Driver struct {
	path     string
	lockFile *os.File
	mem      []byte
	dirty    bool
}

// Open acquires an exclusive lock on path+".lock" and loads (or creates,
// zero-filled, if absent) a size-byte image from path.
func Open(path string, size uint32) (*Driver, error) {
	lockFile, err := acquireLock(path, LockTimeout)
	if err != nil {
		return nil, err
	}

	mem := make([]byte, size)
	existing, readErr := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	switch {
	case readErr == nil:
		copy(mem, existing)
	case os.IsNotExist(readErr):
		// fresh image, stays zeroed
	default:
		releaseLock(lockFile)
		return nil, fmt.Errorf("filedriver: reading image %s: %w", path, readErr)
	}

	return &Driver{path: path, lockFile: lockFile, mem: mem}, nil
}

// Close flushes any pending changes to disk and releases the lock.
func (d *Driver) Close() error {
	defer releaseLock(d.lockFile)
	return d.Flush()
}

// Flush atomically writes the in-memory image to disk if it has changed
// since the last Flush.
func (d *Driver) Flush() error {
	if !d.dirty {
		return nil
	}
	if err := atomic.WriteFile(d.path, &byteReader{b: d.mem}); err != nil {
		return fmt.Errorf("filedriver: flushing image %s: %w", d.path, err)
	}
	d.dirty = false
	return nil
}

func (d *Driver) checkBounds(addr uint32, n int) error {
	if int(addr)+n > len(d.mem) {
		return fmt.Errorf("filedriver: access at %d (len %d) out of bounds (size %d)", addr, n, len(d.mem))
	}
	return nil
}

// Read copies len(buf) bytes starting at addr into buf.
func (d *Driver) Read(_ context.Context, addr uint32, buf []byte) error {
	if err := d.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	copy(buf, d.mem[addr:])
	return nil
}

// Write unconditionally overwrites len(buf) bytes starting at addr.
func (d *Driver) Write(_ context.Context, addr uint32, buf []byte) error {
	if err := d.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	copy(d.mem[addr:], buf)
	d.dirty = true
	return nil
}

// Update writes only the bytes of buf that differ from the current
// image, modeling EEPROM wear-leveling (spec.md §4.3/§9).
func (d *Driver) Update(_ context.Context, addr uint32, buf []byte) error {
	if err := d.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	for i, b := range buf {
		if d.mem[int(addr)+i] != b {
			d.mem[int(addr)+i] = b
			d.dirty = true
		}
	}
	return nil
}

// WriteDword writes a little-endian uint32 at addr, unconditionally.
func (d *Driver) WriteDword(_ context.Context, addr uint32, value uint32) error {
	if err := d.checkBounds(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(d.mem[addr:], value)
	d.dirty = true
	return nil
}

// byteReader adapts a []byte to io.Reader for atomic.WriteFile without an
// extra copy via bytes.NewReader's allocation semantics.
type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func acquireLock(path string, timeout time.Duration) (*os.File, error) {
	lockPath := path + ".lock"

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerms) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("filedriver: opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	const retryInterval = 10 * time.Millisecond

	for {
		flockErr := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if flockErr == nil {
			return file, nil
		}
		if time.Now().After(deadline) {
			_ = file.Close()
			return nil, fmt.Errorf("filedriver: timed out locking %s", path)
		}
		time.Sleep(retryInterval)
	}
}

func releaseLock(f *os.File) {
	if f == nil {
		return
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	_ = f.Close()
}
