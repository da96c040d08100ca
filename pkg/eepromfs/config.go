package eepromfs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Config captures the layout parameters a medium was formatted with.
// It plays the role of the original C's compile-time #define constants;
// a given FS instance is still built against one fixed Config, but
// cmd/eepromfsctl can load non-default layouts from a JWCC (JSON-with-
// comments) file without recompiling — see SPEC_FULL.md §A.3.
type Config struct {
	// BlockSize is the size in bytes of a single block, including its
	// LBA "next" field.
	BlockSize uint32 `json:"block_size"`
	// StartAddress is the byte offset of the filesystem region within
	// the storage medium.
	StartAddress uint32 `json:"start_address"`
	// FSSize is the total size in bytes of the filesystem region.
	FSSize uint32 `json:"fs_size"`
	// MaxFiles is the size of the file-name space, [0, MaxFiles). A
	// prime number is recommended so modulo name-folding spreads
	// collisions, but not required.
	MaxFiles uint32 `json:"max_files"`
	// MaxBlocksPerFile caps how many blocks a single file may occupy.
	MaxBlocksPerFile uint32 `json:"max_blocks_per_file"`
}

// DefaultConfig returns the "Default configuration constants" of
// spec.md §6.
func DefaultConfig() Config {
	return Config{
		BlockSize:        32,
		StartAddress:     0,
		FSSize:           2048,
		MaxFiles:         29,
		MaxBlocksPerFile: 8,
	}
}

// LoadConfig reads a JWCC (JSON-with-comments) config file and overlays
// it onto DefaultConfig. Fields absent from the file keep their default
// value, matching the teacher's own config.go overlay-onto-defaults
// pattern; a field present in the file replaces the default even when
// it is zero, and the result must pass Validate.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path supplied by caller/CLI flag
	if err != nil {
		return Config{}, fmt.Errorf("eepromfs: reading config %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("eepromfs: parsing config %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("eepromfs: decoding config %q: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration describes a layout the core can
// actually address: a header and allocation table that fit within
// FSSize, leaving room for at least one block.
func (c Config) Validate() error {
	if c.BlockSize == 0 {
		return fmt.Errorf("eepromfs: block_size must be > 0")
	}
	if c.BlockSize <= lbaSize {
		return fmt.Errorf("eepromfs: block_size must exceed the LBA field size (%d)", lbaSize)
	}
	if c.MaxFiles == 0 {
		return fmt.Errorf("eepromfs: max_files must be > 0")
	}
	if c.MaxBlocksPerFile == 0 {
		return fmt.Errorf("eepromfs: max_blocks_per_file must be > 0")
	}
	if dataOffset(c) >= c.FSSize {
		return fmt.Errorf("eepromfs: fs_size too small to hold header and allocation table")
	}
	if numBlocks(c) == 0 {
		return fmt.Errorf("eepromfs: fs_size leaves no room for any block")
	}
	return nil
}
