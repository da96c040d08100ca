// Package faultdriver wraps an eepromfs.Storage to let tests simulate a
// power loss partway through a multi-write operation (spec.md §6's S6
// scenario and §9's crash-window note).
//
// Unlike the teacher's pkg/fs.Crash, which models a POSIX filesystem's
// buffered-write-then-fsync durability boundary, an EEPROM has no such
// boundary: every Storage call is durable the instant it returns. So
// instead of a sync-gated live/durable split, faultdriver records each
// low-level Storage call as an ordered log entry and lets a test rewind
// to "as of call N", modeling a crash between two calls that a single
// eepromfs operation (close, Format, ...) issued back to back. This is
// grounded on the same idea the teacher's crash.go expresses
// (SimulateCrash rotates to a point-in-time snapshot) adapted to a
// medium whose unit of durability is the individual call, not the fsync.
package faultdriver

import (
	"context"
	"fmt"
)

type call struct {
	addr   uint32
	before []byte
	after  []byte
}

// Driver serves Read/Write/Update/WriteDword from an underlying byte
// buffer and records each mutating call (every Write and WriteDword, and
// each Update that changes at least one byte), so a test can later
// rebuild the medium as of a prefix of those calls via Rewind.
type Driver struct {
	mem   []byte
	calls []call
}

// New returns a Driver over a zeroed region of the given size.
func New(size uint32) *Driver {
	return &Driver{mem: make([]byte, size)}
}

func (d *Driver) checkBounds(addr uint32, n int) error {
	if int(addr)+n > len(d.mem) {
		return fmt.Errorf("faultdriver: access at %d (len %d) out of bounds (size %d)", addr, n, len(d.mem))
	}
	return nil
}

func (d *Driver) record(addr uint32, before, after []byte) {
	b := make([]byte, len(before))
	a := make([]byte, len(after))
	copy(b, before)
	copy(a, after)
	d.calls = append(d.calls, call{addr: addr, before: b, after: a})
}

// Read copies len(buf) bytes starting at addr into buf. Reads are not
// logged; only mutations matter for crash simulation.
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
	before := append([]byte(nil), d.mem[addr:int(addr)+len(buf)]...)
	copy(d.mem[addr:], buf)
	d.record(addr, before, buf)
	return nil
}

// Update writes only the bytes of buf that differ from the current
// contents, modeling EEPROM wear-leveling (spec.md §4.3/§9).
func (d *Driver) Update(_ context.Context, addr uint32, buf []byte) error {
	if err := d.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	before := append([]byte(nil), d.mem[addr:int(addr)+len(buf)]...)
	changed := false
	for i, b := range buf {
		if d.mem[int(addr)+i] != b {
			d.mem[int(addr)+i] = b
			changed = true
		}
	}
	if changed {
		d.record(addr, before, buf)
	}
	return nil
}

// WriteDword writes a little-endian uint32 at addr, unconditionally.
func (d *Driver) WriteDword(ctx context.Context, addr uint32, value uint32) error {
	buf := make([]byte, 4)
	buf[0] = byte(value)
	buf[1] = byte(value >> 8)
	buf[2] = byte(value >> 16)
	buf[3] = byte(value >> 24)
	return d.Write(ctx, addr, buf)
}

// CallCount returns the number of mutating calls recorded so far.
func (d *Driver) CallCount() int {
	return len(d.calls)
}

// Rewind returns a new Driver whose medium reflects only the first n
// recorded mutating calls, simulating a crash immediately after call n
// and before call n+1. n must be in [0, CallCount()].
func (d *Driver) Rewind(n int) (*Driver, error) {
	if n < 0 || n > len(d.calls) {
		return nil, fmt.Errorf("faultdriver: rewind point %d out of range [0, %d]", n, len(d.calls))
	}

	out := &Driver{mem: make([]byte, len(d.mem))}
	copy(out.mem, d.mem)
	// Undo calls from the end back to n, in reverse order, so the
	// result is exactly "as of call n" even when later calls overlap
	// addresses touched by earlier ones.
	for i := len(d.calls) - 1; i >= n; i-- {
		c := d.calls[i]
		copy(out.mem[c.addr:], c.before)
	}
	return out, nil
}
