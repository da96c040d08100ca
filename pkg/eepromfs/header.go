package eepromfs

import "encoding/binary"

// Header field offsets within the 20-byte metadata header. See spec.md
// §3 "Metadata header" and §6 "On-medium layout". Named offsets follow
// the style of pkg/slotcache/format.go's offXxx constants in the teacher
// repo.
const (
	offBlockSize        = 0  // uint32
	offStartAddress     = 4  // uint32
	offFSSize           = 8  // uint32
	offMaxFiles         = 12 // uint32
	offMaxBlocksPerFile = 16 // uint32
)

// encodeHeader serializes a Config into the on-medium metadata header
// format.
func encodeHeader(c Config) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[offBlockSize:], c.BlockSize)
	binary.LittleEndian.PutUint32(buf[offStartAddress:], c.StartAddress)
	binary.LittleEndian.PutUint32(buf[offFSSize:], c.FSSize)
	binary.LittleEndian.PutUint32(buf[offMaxFiles:], c.MaxFiles)
	binary.LittleEndian.PutUint32(buf[offMaxBlocksPerFile:], c.MaxBlocksPerFile)
	return buf
}

// decodeHeader deserializes the on-medium metadata header into a Config.
func decodeHeader(buf []byte) Config {
	return Config{
		BlockSize:        binary.LittleEndian.Uint32(buf[offBlockSize:]),
		StartAddress:     binary.LittleEndian.Uint32(buf[offStartAddress:]),
		FSSize:           binary.LittleEndian.Uint32(buf[offFSSize:]),
		MaxFiles:         binary.LittleEndian.Uint32(buf[offMaxFiles:]),
		MaxBlocksPerFile: binary.LittleEndian.Uint32(buf[offMaxBlocksPerFile:]),
	}
}

// matchesLayout reports whether a header read back from the medium
// agrees with the configured layout on every field. FS.Init (fs.go)
// reformats the medium (quick) whenever this is false, per spec.md §4.2.
func (c Config) matchesLayout(stored Config) bool {
	return stored.BlockSize == c.BlockSize &&
		stored.StartAddress == c.StartAddress &&
		stored.FSSize == c.FSSize &&
		stored.MaxFiles == c.MaxFiles &&
		stored.MaxBlocksPerFile == c.MaxBlocksPerFile
}
