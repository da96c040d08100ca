package eepromfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Layout_DefaultConfig_MatchesSpecConstants(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, uint32(30), blockDataSize(cfg), "BLOCK_DATA_SIZE = BLOCK_SIZE - sizeof(LBA), matching spec.md §8's worked scenarios")
	assert.Equal(t, 20, headerSize, "header is 5 uint32 fields")
	assert.Equal(t, uint32(20), allocTableOffset(cfg))
	assert.Equal(t, uint32(20+(29+1)*6), dataOffset(cfg))

	n := numBlocks(cfg)
	assert.Greater(t, n, uint32(0), "default layout must leave room for at least one block")
}

func Test_Layout_BlockPtr_IsMonotonicAndWithinRange(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	n := numBlocks(cfg)

	var prev uint32
	for i := uint32(0); i < n; i++ {
		p := blockPtr(cfg, LBA(i))
		assert.GreaterOrEqual(t, p, dataOffset(cfg))
		assert.Less(t, p, cfg.FSSize)
		if i > 0 {
			assert.Greater(t, p, prev)
		}
		prev = p
	}
}

func Test_Layout_NumBlocks_ZeroWhenLayoutDoesNotFit(t *testing.T) {
	t.Parallel()

	cfg := Config{BlockSize: 32, FSSize: 8, MaxFiles: 29, MaxBlocksPerFile: 8}
	assert.Equal(t, uint32(0), numBlocks(cfg))
}
