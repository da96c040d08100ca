package eepromfs

import (
	"context"
	"fmt"
)

// Read walks the chain starting at h.FirstBlock and copies h.FileSize
// bytes into buf, which must be at least that large. Returns
// ErrInvalidHandle if h.FirstBlock is NullLBA. See spec.md §4.1.
func (fs *FS) Read(ctx context.Context, h *Handle, buf []byte) error {
	if h.FirstBlock < 0 || uint32(h.FirstBlock) >= numBlocks(fs.cfg) {
		fs.log.Errorf("tried to read from null file handle")
		return ErrInvalidHandle
	}
	if uint32(len(buf)) < h.FileSize {
		return fmt.Errorf("eepromfs: read buffer too small: need %d, got %d", h.FileSize, len(buf))
	}

	dataSize := blockDataSize(fs.cfg)
	block := h.FirstBlock
	i := uint32(0)

	for {
		// A chain left non-terminated by a crash between link and the
		// final terminating relink in Close (spec.md §4.3/§9, scenario
		// S6) could in principle walk past len(buf); stop rather than
		// slice out of range, so the caller observes only the bytes it
		// provided room for.
		start := i * dataSize
		if start >= uint32(len(buf)) {
			break
		}

		fs.log.Debugf(3, "reading from block %d...", block)
		payload, err := fs.readBlockPayload(ctx, block)
		if err != nil {
			return err
		}
		next, err := fs.readBlockNext(ctx, block)
		if err != nil {
			return err
		}
		fs.log.Debugf(3, "done")

		numBytes := dataSize
		if (i+1)*dataSize > h.FileSize {
			numBytes = h.FileSize % dataSize
		}
		end := start + numBytes
		if end > uint32(len(buf)) {
			end = uint32(len(buf))
		}

		copy(buf[start:end], payload[:end-start])

		i++
		if next == NullLBA {
			break
		}
		block = next
	}

	return nil
}
