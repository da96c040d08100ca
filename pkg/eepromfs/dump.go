package eepromfs

import (
	"context"
	"fmt"
	"io"
)

const dumpBytesPerLine = 16

// Dump writes a canonical hex+ASCII dump of the entire configured
// filesystem region to w, 16 bytes per line with the line's starting
// offset and a printable-ASCII gutter, non-printable bytes rendered as
// '.'. Mirrors the original C's dump_eeprom; see spec.md §6.
func (fs *FS) Dump(ctx context.Context, w io.Writer) error {
	buf := make([]byte, fs.cfg.FSSize)
	if err := fs.storage.Read(ctx, fs.cfg.StartAddress, buf); err != nil {
		return fmt.Errorf("eepromfs: reading for dump: %w", err)
	}
	HexDump(w, buf)
	return nil
}

// HexDump writes data to w in the same 16-bytes-per-line hex+ASCII
// layout as FS.Dump, independent of any filesystem instance. Exposed
// standalone per SPEC_FULL.md §C.3 so callers can dump an arbitrary
// buffer (a single block, a captured snapshot) without a live FS.
func HexDump(w io.Writer, data []byte) {
	for i := 0; i < len(data); i++ {
		if i%dumpBytesPerLine == 0 {
			fmt.Fprintf(w, "\n%#05x : ", i)
		}

		fmt.Fprintf(w, "%02x ", data[i])

		if i%dumpBytesPerLine == dumpBytesPerLine-1 || i == len(data)-1 {
			lineStart := i - i%dumpBytesPerLine
			if i%dumpBytesPerLine != dumpBytesPerLine-1 {
				// pad the hex column so the ASCII gutter still lines up
				for j := i + 1; j%dumpBytesPerLine != 0; j++ {
					fmt.Fprint(w, "   ")
				}
			}
			fmt.Fprint(w, ": ")
			for _, b := range data[lineStart : i+1] {
				if b < 0x20 || b > 0x7e {
					fmt.Fprint(w, ".")
				} else {
					fmt.Fprintf(w, "%c", b)
				}
			}
		}
	}
	fmt.Fprintln(w)
}
