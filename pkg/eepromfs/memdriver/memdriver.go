// Package memdriver implements eepromfs.Storage over a plain in-process
// byte slice, standing in for the EEPROM address space addressed by
// spec.md's driver primitives. It is grounded on the teacher pack's
// in-memory block store (marmos91-dittofs's pkg/store/block/memory),
// adapted from a keyed block map to the flat byte-addressed layout
// eepromfs.Storage requires (SPEC_FULL.md §A.4/§B).
//
// It is intended for tests and for exercising eepromfs without any real
// persistent medium; WriteCount, UpdateCount and BytesChanged let tests
// assert on wear behavior (P8, the Update-not-write invariant, is
// checked through BytesChanged).
package memdriver

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
)

// Driver is a fixed-size, mutex-guarded byte array satisfying
// eepromfs.Storage.
type Driver struct {
	mu  sync.Mutex
	mem []byte

	// WriteCount counts Write and WriteDword calls and UpdateCount counts
	// every Update call; BytesChanged counts only the bytes Update
	// actually changed.
	WriteCount   int
	UpdateCount  int
	BytesChanged int
}

// New returns a Driver backed by a zeroed region of the given size.
func New(size uint32) *Driver {
	return &Driver{mem: make([]byte, size)}
}

func (d *Driver) checkBounds(addr uint32, n int) error {
	if int(addr)+n > len(d.mem) {
		return fmt.Errorf("memdriver: access at %d (len %d) out of bounds (size %d)", addr, n, len(d.mem))
	}
	return nil
}

// Read copies len(buf) bytes starting at addr into buf.
func (d *Driver) Read(_ context.Context, addr uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	copy(buf, d.mem[addr:])
	return nil
}

// Write unconditionally overwrites len(buf) bytes starting at addr.
func (d *Driver) Write(_ context.Context, addr uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	copy(d.mem[addr:], buf)
	d.WriteCount++
	return nil
}

// Update writes only the bytes of buf that actually differ from what is
// currently stored, modeling EEPROM wear-leveling per spec.md §4.3/§9.
func (d *Driver) Update(_ context.Context, addr uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkBounds(addr, len(buf)); err != nil {
		return err
	}

	d.UpdateCount++
	for i, b := range buf {
		if d.mem[int(addr)+i] != b {
			d.mem[int(addr)+i] = b
			d.BytesChanged++
		}
	}
	return nil
}

// WriteDword writes a little-endian uint32 at addr, unconditionally.
func (d *Driver) WriteDword(_ context.Context, addr uint32, value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkBounds(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(d.mem[addr:], value)
	d.WriteCount++
	return nil
}

// Snapshot returns a copy of the underlying medium, for test assertions
// and for seeding a fresh Driver from a previously captured image.
func (d *Driver) Snapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, len(d.mem))
	copy(out, d.mem)
	return out
}
