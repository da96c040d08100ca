package eepromfs

// On-medium layout constants and address math. Offsets are from
// Config.StartAddress. See spec.md §6.
const (
	// lbaSize is the encoded size in bytes of one LBA value on the
	// medium (a little-endian int16, matching the original C's
	// sizeof(lba_t)).
	lbaSize = 2

	// allocEntrySize is the encoded size in bytes of one AllocEntry
	// (uint32 FileSize + int16 FirstBlock).
	allocEntrySize = 6

	// headerSize is the encoded size in bytes of the metadata header
	// (5 uint32 fields). See header.go.
	headerSize = 20

	metaOffset = 0
)

// allocTableOffset is the byte offset of the allocation table, just past
// the metadata header.
func allocTableOffset(Config) uint32 {
	return metaOffset + headerSize
}

// dataOffset is the byte offset of the block pool, just past the
// allocation table (MaxFiles file entries plus one sentinel entry).
func dataOffset(c Config) uint32 {
	return allocTableOffset(c) + (c.MaxFiles+1)*allocEntrySize
}

// numBlocks is the number of fixed-size blocks the configured FSSize
// leaves room for after the header and allocation table.
func numBlocks(c Config) uint32 {
	if c.FSSize <= dataOffset(c) {
		return 0
	}
	return (c.FSSize - dataOffset(c)) / c.BlockSize
}

// blockDataSize is BLOCK_DATA_SIZE: the payload bytes available per
// block once the "next" LBA field is subtracted.
func blockDataSize(c Config) uint32 {
	return c.BlockSize - lbaSize
}

// blockPtr computes the physical medium address of logical block lba.
// The "mod FSSize" term is defensive against out-of-range LBAs reaching
// the driver, per spec.md §4.3.
func blockPtr(c Config, lba LBA) uint32 {
	offset := (uint64(lba) * uint64(c.BlockSize)) % uint64(c.FSSize)
	return c.StartAddress + dataOffset(c) + uint32(offset)
}

// allocEntryPtr computes the physical medium address of allocation table
// index idx (idx == MaxFiles addresses the free-chain sentinel entry).
func allocEntryPtr(c Config, idx uint32) uint32 {
	return c.StartAddress + allocTableOffset(c) + idx*allocEntrySize
}
