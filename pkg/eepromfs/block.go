package eepromfs

import (
	"context"
	"encoding/binary"
	"fmt"
)

// checkBlockRange reports ErrOutOfRangeBlock if block is not a valid LBA
// for the configured layout.
func (fs *FS) checkBlockRange(block LBA) error {
	if block < 0 || uint32(block) >= numBlocks(fs.cfg) {
		return fmt.Errorf("%w: %d", ErrOutOfRangeBlock, block)
	}
	return nil
}

// readBlockNext reads only the "next" LBA field of a block, without
// touching its payload.
func (fs *FS) readBlockNext(ctx context.Context, block LBA) (LBA, error) {
	if err := fs.checkBlockRange(block); err != nil {
		return NullLBA, err
	}

	buf := make([]byte, lbaSize)
	if err := fs.storage.Read(ctx, blockPtr(fs.cfg, block), buf); err != nil {
		return NullLBA, fmt.Errorf("eepromfs: reading next pointer of block %d: %w", block, err)
	}
	return LBA(int16(binary.LittleEndian.Uint16(buf))), nil
}

// readBlockPayload reads a block's full BLOCK_DATA_SIZE payload region
// (the caller trims to the relevant length).
func (fs *FS) readBlockPayload(ctx context.Context, block LBA) ([]byte, error) {
	if err := fs.checkBlockRange(block); err != nil {
		return nil, err
	}

	buf := make([]byte, blockDataSize(fs.cfg))
	addr := blockPtr(fs.cfg, block) + lbaSize
	if err := fs.storage.Read(ctx, addr, buf); err != nil {
		return nil, fmt.Errorf("eepromfs: reading payload of block %d: %w", block, err)
	}
	return buf, nil
}

// relinkBlock overwrites only the "next" field of block, leaving its
// payload untouched. This is the sole primitive by which chain surgery
// happens, per spec.md §4.3. target may be NullLBA but must otherwise be
// in range.
func (fs *FS) relinkBlock(ctx context.Context, block, target LBA) error {
	if err := fs.checkBlockRange(block); err != nil {
		fs.log.Errorf("relink: %v", err)
		return err
	}
	if target != NullLBA {
		if err := fs.checkBlockRange(target); err != nil {
			fs.log.Errorf("relink target: %v", err)
			return err
		}
	}

	fs.log.Debugf(3, "relinking block %d -> %d", block, target)

	buf := make([]byte, lbaSize)
	binary.LittleEndian.PutUint16(buf, uint16(int16(target)))
	if err := fs.storage.Write(ctx, blockPtr(fs.cfg, block), buf); err != nil {
		return fmt.Errorf("eepromfs: relinking block %d: %w", block, err)
	}
	return nil
}

// writeBlockPayload writes data into a block's payload region without
// touching its "next" field. data must be at most blockDataSize(cfg)
// bytes; shorter writes leave the remainder of the region as-is on the
// medium (matching the original C, which only ever writes exactly
// blockDataSize bytes per block but the final block's tail is never read
// back beyond filesize, so stale trailing bytes are unobservable).
func (fs *FS) writeBlockPayload(ctx context.Context, block LBA, data []byte) error {
	if err := fs.checkBlockRange(block); err != nil {
		return err
	}

	addr := blockPtr(fs.cfg, block) + lbaSize
	if err := fs.storage.Write(ctx, addr, data); err != nil {
		return fmt.Errorf("eepromfs: writing payload of block %d: %w", block, err)
	}
	return nil
}

// writeWholeBlock writes both the "next" field and the full payload of a
// block in one call, used only by Format(FormatFull).
func (fs *FS) writeWholeBlock(ctx context.Context, block, next LBA, payload []byte) error {
	if err := fs.checkBlockRange(block); err != nil {
		return err
	}

	buf := make([]byte, fs.cfg.BlockSize)
	binary.LittleEndian.PutUint16(buf, uint16(int16(next)))
	copy(buf[lbaSize:], payload)

	if err := fs.storage.Update(ctx, blockPtr(fs.cfg, block), buf); err != nil {
		return fmt.Errorf("eepromfs: writing block %d: %w", block, err)
	}
	return nil
}

// lastBlockInChain walks from block following "next" pointers until it
// finds the terminal block (next == NullLBA), returning that block's
// LBA. Mirrors the original C's last_block_in_chain.
func (fs *FS) lastBlockInChain(ctx context.Context, block LBA) (LBA, error) {
	if err := fs.checkBlockRange(block); err != nil {
		fs.log.Errorf("last block in chain: %v", err)
		return NullLBA, err
	}

	fs.log.Debugf(3, "searching for last block in chain starting at %d", block)

	current := block
	for {
		next, err := fs.readBlockNext(ctx, current)
		if err != nil {
			return NullLBA, err
		}
		if next == NullLBA {
			fs.log.Debugf(3, "last block in chain: %d", current)
			return current, nil
		}
		current = next
	}
}
