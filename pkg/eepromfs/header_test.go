package eepromfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Header_EncodeDecode_RoundTrips(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BlockSize:        32,
		StartAddress:     16,
		FSSize:           4096,
		MaxFiles:         17,
		MaxBlocksPerFile: 4,
	}

	buf := encodeHeader(cfg)
	assert.Len(t, buf, int(headerSize))

	got := decodeHeader(buf)
	assert.Equal(t, cfg, got)
}

func Test_Header_MatchesLayout(t *testing.T) {
	t.Parallel()

	a := DefaultConfig()
	b := DefaultConfig()
	assert.True(t, a.matchesLayout(b))

	b.MaxFiles = a.MaxFiles + 1
	assert.False(t, a.matchesLayout(b))
}
