package eepromfs

import (
	"context"
	"fmt"

	"github.com/CJxD/avr-eeprom-fs/internal/eepromlog"
)

// FS is an explicit file-system instance owning the cached allocation
// table, the configured layout, and the storage driver it talks to. Per
// spec.md §9's design note, state is never implicit/global: every
// operation is a method on a *FS value the caller constructs and owns.
//
// FS is single-threaded and synchronous (spec.md §5): callers must
// serialize their own access to a given FS.
type FS struct {
	cfg     Config
	storage Storage
	log     *eepromlog.Logger

	// table is the in-RAM cached allocation table, indices [0, MaxFiles)
	// for file entries plus index MaxFiles for the free-chain sentinel.
	// Format, link, unlink, Close and Delete change it and mirror the
	// change to storage. Write also advances the cached free-chain head
	// (via allocateBlock) without persisting it, so between a Write and
	// its Close the cached sentinel is ahead of the persisted one; at
	// every other quiescent point it equals the persisted table (I6).
	table []AllocEntry
}

// New constructs an FS bound to the given configuration and storage
// driver. Call Init before any other method. logger may be nil, in which
// case a default logger at level 0 (errors only) writing to os.Stderr is
// used.
func New(cfg Config, storage Storage, logger *eepromlog.Logger) *FS {
	if logger == nil {
		logger = eepromlog.New(nil, 0)
	}
	return &FS{cfg: cfg, storage: storage, log: logger}
}

// Config returns the layout this FS was constructed with.
func (fs *FS) Config() Config { return fs.cfg }

// NumBlocks returns NUM_BLOCKS for this FS's configured layout.
func (fs *FS) NumBlocks() uint32 { return numBlocks(fs.cfg) }

// BlockDataSize returns BLOCK_DATA_SIZE for this FS's configured layout.
func (fs *FS) BlockDataSize() uint32 { return blockDataSize(fs.cfg) }

// SetDebug sets the logger's verbosity level (0-4), per spec.md §4.4.
func (fs *FS) SetDebug(level int) { fs.log.SetLevel(level) }

// Init reads the stored metadata header and compares it against the
// configured layout. If any field disagrees, it performs a quick format
// (spec.md §4.2) before loading the allocation table into RAM.
func (fs *FS) Init(ctx context.Context) error {
	fs.log.Debugf(1, "initialising filesystem")

	fs.log.Debugf(2, "loading metadata...")
	buf := make([]byte, headerSize)
	if err := fs.storage.Read(ctx, fs.cfg.StartAddress+metaOffset, buf); err != nil {
		return fmt.Errorf("eepromfs: reading metadata header: %w", err)
	}
	stored := decodeHeader(buf)
	fs.log.Debugf(2, "done")

	if !fs.cfg.matchesLayout(stored) {
		if err := fs.Format(ctx, FormatQuick); err != nil {
			return fmt.Errorf("eepromfs: formatting on init: %w", err)
		}
	}

	fs.log.Debugf(2, "loading file allocation table...")
	if err := fs.loadAllocTable(ctx); err != nil {
		return err
	}
	fs.log.Debugf(2, "done")

	fs.log.Debugf(3, "next free block: %d", fs.freeHead())
	fs.log.Debugf(1, "filesystem initialised")
	return nil
}

// Format rebuilds the medium according to mode, then reinitializes the
// in-RAM allocation table to an all-empty state with a fresh free chain
// threaded head-to-tail in reverse block order, and persists both the
// table and the metadata header. See spec.md §4.2.
func (fs *FS) Format(ctx context.Context, mode FormatMode) error {
	fs.log.Debugf(1, "formatting filesystem (%s)", mode)

	if mode == FormatWipe {
		if err := fs.Wipe(ctx); err != nil {
			return err
		}
	}

	n := numBlocks(fs.cfg)
	var zeroPayload []byte
	if mode == FormatFull {
		zeroPayload = make([]byte, blockDataSize(fs.cfg))
	}

	for i := uint32(0); i < n; i++ {
		next := LBA(int32(i) - 1)
		if mode == FormatFull {
			fs.log.Debugf(3, "relinking block %d -> %d...", i, next)
			if err := fs.writeWholeBlock(ctx, LBA(i), next, zeroPayload); err != nil {
				return err
			}
			fs.log.Debugf(3, "done")
		} else {
			if err := fs.relinkBlock(ctx, LBA(i), next); err != nil {
				return err
			}
		}
	}

	fs.log.Debugf(2, "writing file allocation table...")

	fs.table = make([]AllocEntry, fs.cfg.MaxFiles+1)
	for i := uint32(0); i < fs.cfg.MaxFiles; i++ {
		fs.table[i] = AllocEntry{FileSize: 0, FirstBlock: NullLBA}
	}
	freeHead := NullLBA
	if n > 0 {
		freeHead = LBA(n - 1)
	}
	fs.table[fs.freeSentinel()] = AllocEntry{FileSize: 0, FirstBlock: freeHead}

	count := fs.cfg.MaxFiles + 1
	buf := make([]byte, count*allocEntrySize)
	for i := uint32(0); i < count; i++ {
		copy(buf[i*allocEntrySize:], encodeAllocEntry(fs.table[i]))
	}
	if err := fs.storage.Update(ctx, allocTableOffset(fs.cfg)+fs.cfg.StartAddress, buf); err != nil {
		return fmt.Errorf("eepromfs: writing allocation table: %w", err)
	}
	fs.log.Debugf(2, "done")

	fs.log.Debugf(2, "writing metadata...")
	if err := fs.storage.Write(ctx, fs.cfg.StartAddress+metaOffset, encodeHeader(fs.cfg)); err != nil {
		return fmt.Errorf("eepromfs: writing metadata header: %w", err)
	}
	fs.log.Debugf(2, "done")

	fs.log.Debugf(1, "successfully formatted")
	return nil
}

// Wipe zeroes the entire configured filesystem region, one dword (4
// bytes) at a time, via Storage.WriteDword. See spec.md §4.2/§6 and
// SPEC_FULL.md §C.4 for why this is exposed as a standalone method
// rather than only reachable through Format(FormatWipe).
func (fs *FS) Wipe(ctx context.Context) error {
	const dwordSize = 4
	for off := uint32(0); off < fs.cfg.FSSize; off += dwordSize {
		if err := fs.storage.WriteDword(ctx, fs.cfg.StartAddress+off, 0); err != nil {
			return fmt.Errorf("eepromfs: wiping at offset %d: %w", off, err)
		}
	}
	return nil
}
