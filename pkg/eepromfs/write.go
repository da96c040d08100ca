package eepromfs

import (
	"context"
	"fmt"
)

// Write is only valid against handles from OpenForWrite or
// OpenForAppend; it returns ErrWriteToReadOnly against a read handle.
//
// For APPEND handles with a non-block-aligned existing tail, the
// trailing bytes of the existing file are merged in front of data
// before allocation, per spec.md §4.1's "APPEND merge" rule. The result
// is capped at MaxBlocksPerFile blocks; an oversized write is truncated
// and reported via ErrTruncated without aborting the committed portion
// (h.FileSize still reflects what was actually written). See
// SPEC_FULL.md §C.2 for the exact boundary behavior at
// existingSize == BlockDataSize.
func (fs *FS) Write(ctx context.Context, h *Handle, data []byte) error {
	if h.Type != HandleWrite && h.Type != HandleAppend {
		fs.log.Errorf("tried to write to read-only file handle '%d'", h.Name)
		return ErrWriteToReadOnly
	}

	dataSize := blockDataSize(fs.cfg)
	oldSize := h.FileSize

	if h.Type == HandleAppend && oldSize%dataSize > 0 {
		overflow := oldSize % dataSize
		tail, err := fs.lastBlockInChain(ctx, fs.table[h.Name].FirstBlock)
		if err != nil {
			return err
		}
		tailPayload, err := fs.readBlockPayload(ctx, tail)
		if err != nil {
			return err
		}

		merged := make([]byte, overflow+uint32(len(data)))
		copy(merged, tailPayload[:overflow])
		copy(merged[overflow:], data)
		data = merged
	}

	size := uint32(len(data))

	fs.log.Debugf(1, "writing %d bytes to file %d", size, h.Name)

	var blocksInUse uint32
	if h.Type == HandleAppend {
		blocksInUse = oldSize / dataSize
	}

	var numBlocks uint32
	var truncated bool
	if blocksInUse*dataSize+size > fs.cfg.MaxBlocksPerFile*dataSize {
		numBlocks = fs.cfg.MaxBlocksPerFile - blocksInUse
		truncated = true
		fs.log.Errorf("file too large - write truncated to %d bytes", numBlocks*dataSize)
	} else {
		numBlocks = size/dataSize + 1
	}

	if numBlocks == 0 {
		fs.log.Errorf("no more space available for file %d", h.Name)
		return fmt.Errorf("%w: file %d", ErrNoSpace, h.Name)
	}

	numBytes := dataSize
	h.FirstBlock = fs.freeHead()

	for i := uint32(0); i < numBlocks; i++ {
		if (i+1)*dataSize > size {
			numBytes = size % dataSize
		}

		block := make([]byte, numBytes)
		copy(block, data[i*dataSize:i*dataSize+numBytes])

		last, err := fs.allocateBlock(ctx, block)
		if err != nil {
			return err
		}
		h.LastBlock = last
	}

	if size > numBlocks*dataSize {
		h.FileSize = numBlocks * dataSize
	} else {
		h.FileSize = size
	}

	fs.log.Debugf(1, "file %d successfully written", h.Name)

	if truncated {
		return fmt.Errorf("%w: file %d", ErrTruncated, h.Name)
	}
	return nil
}
