package eepromfs

import (
	"context"
	"encoding/binary"
	"fmt"
)

// freeSentinel is the allocation-table index of the free-chain sentinel
// entry, one past the last real file name.
func (fs *FS) freeSentinel() uint32 {
	return fs.cfg.MaxFiles
}

// freeHead returns the cached free-chain head (the sentinel entry's
// FirstBlock).
func (fs *FS) freeHead() LBA {
	return fs.table[fs.freeSentinel()].FirstBlock
}

// encodeAllocEntry serializes a single AllocEntry to its 6-byte on-medium
// form.
func encodeAllocEntry(e AllocEntry) []byte {
	buf := make([]byte, allocEntrySize)
	binary.LittleEndian.PutUint32(buf[0:], e.FileSize)
	binary.LittleEndian.PutUint16(buf[4:], uint16(int16(e.FirstBlock)))
	return buf
}

// decodeAllocEntry deserializes one 6-byte on-medium allocation entry.
func decodeAllocEntry(buf []byte) AllocEntry {
	return AllocEntry{
		FileSize:   binary.LittleEndian.Uint32(buf[0:]),
		FirstBlock: LBA(int16(binary.LittleEndian.Uint16(buf[4:]))),
	}
}

// loadAllocTable reads the full allocation table (MaxFiles file entries
// plus the free-chain sentinel) from storage into fs.table.
func (fs *FS) loadAllocTable(ctx context.Context) error {
	count := fs.cfg.MaxFiles + 1
	buf := make([]byte, count*allocEntrySize)
	if err := fs.storage.Read(ctx, allocTableOffset(fs.cfg)+fs.cfg.StartAddress, buf); err != nil {
		return fmt.Errorf("eepromfs: loading allocation table: %w", err)
	}

	fs.table = make([]AllocEntry, count)
	for i := uint32(0); i < count; i++ {
		fs.table[i] = decodeAllocEntry(buf[i*allocEntrySize : (i+1)*allocEntrySize])
	}
	return nil
}

// persistEntry mirrors a single allocation-table slot (a file entry or
// the free-chain sentinel) to storage using Update, suppressing
// redundant wear on the FAT region per spec.md §4.3/§9.
func (fs *FS) persistEntry(ctx context.Context, idx uint32) error {
	buf := encodeAllocEntry(fs.table[idx])
	if err := fs.storage.Update(ctx, allocEntryPtr(fs.cfg, idx), buf); err != nil {
		return fmt.Errorf("eepromfs: persisting allocation entry %d: %w", idx, err)
	}
	return nil
}

// foldName wraps an externally supplied file name into [0, MaxFiles) by
// modulo reduction, per spec.md §4.1 and SPEC_FULL.md §C.5.
func (fs *FS) foldName(name FileName) FileName {
	folded := FileName(uint32(name) % fs.cfg.MaxFiles)
	if folded != name {
		fs.log.Debugf(2, "name %d folded to %d", name, folded)
	}
	return folded
}

// allocateBlock pulls one block off the head of the free chain, writes
// data into its payload region, and returns its LBA. The pulled block's
// "next" field still holds its old free-chain link, which already points
// at the block the following allocateBlock call pulls; only the last
// block of a run is relinked, by FS.Close. See SPEC_FULL.md §C.1 for why the old
// head's "next" must be read before the cached free head is advanced.
func (fs *FS) allocateBlock(ctx context.Context, data []byte) (LBA, error) {
	head := fs.freeHead()
	if err := fs.checkBlockRange(head); err != nil {
		fs.log.Errorf("no space available: %v", err)
		return NullLBA, fmt.Errorf("%w: free chain exhausted", ErrNoSpace)
	}

	next, err := fs.readBlockNext(ctx, head)
	if err != nil {
		return NullLBA, err
	}

	fs.table[fs.freeSentinel()].FirstBlock = next

	fs.log.Debugf(2, "allocating block %d, next free head is %d", head, next)

	if err := fs.writeBlockPayload(ctx, head, data); err != nil {
		return NullLBA, err
	}

	return head, nil
}

// link commits a handle's in-flight write run to the allocation table:
// the named file's entry becomes {FileSize, FirstBlock} from the handle,
// and the new free-chain head (already advanced in fs.table by
// allocateBlock calls) is mirrored too. Both mirrors use Update. See
// spec.md §4.3.
func (fs *FS) link(ctx context.Context, h *Handle) error {
	if err := fs.checkBlockRange(h.FirstBlock); err != nil {
		fs.log.Errorf("cannot link file %d to invalid block %d: %v", h.Name, h.FirstBlock, err)
		return err
	}

	name := fs.foldName(h.Name)
	fs.log.Debugf(1, "linking file %d to block %d", name, h.FirstBlock)

	fs.table[name] = AllocEntry{FileSize: h.FileSize, FirstBlock: h.FirstBlock}

	if err := fs.persistEntry(ctx, uint32(name)); err != nil {
		return err
	}
	if err := fs.persistEntry(ctx, fs.freeSentinel()); err != nil {
		return err
	}

	fs.log.Debugf(1, "link successful")
	return nil
}

// unlink appends the chain starting at block to the tail of the free
// chain, by walking the free chain to find its current tail and
// relinking only that tail's "next" field (a single lbaSize-byte
// Write), per spec.md §4.3. The free chain is therefore FIFO:
// allocations pull from the head (sentinel.FirstBlock) while frees are
// appended at the tail, rotating the pool's hot set per spec.md §4.2.
//
// A completely exhausted free chain (every block held by some file) is
// handled explicitly by making block the new head, rather than the
// original C's behavior of walking from NullLBA and erroring; this can
// only arise transiently (all blocks allocated, one now being freed) and
// I3 requires the free chain to cover it regardless.
func (fs *FS) unlink(ctx context.Context, block LBA) error {
	if err := fs.checkBlockRange(block); err != nil {
		fs.log.Errorf("cannot unlink invalid block %d: %v", block, err)
		return err
	}

	fs.log.Debugf(1, "unlinking block %d", block)

	head := fs.freeHead()
	if head == NullLBA {
		// Free chain is empty: block becomes the new (single-block) chain.
		fs.table[fs.freeSentinel()].FirstBlock = block
		return fs.persistEntry(ctx, fs.freeSentinel())
	}

	tail, err := fs.lastBlockInChain(ctx, head)
	if err != nil {
		return err
	}

	if err := fs.relinkBlock(ctx, tail, block); err != nil {
		return err
	}

	fs.log.Debugf(1, "unlink successful")
	return nil
}
