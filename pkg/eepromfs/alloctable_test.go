package eepromfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs/memdriver"
)

func newInternalTestFS(t *testing.T) *FS {
	t.Helper()
	cfg := DefaultConfig()
	drv := memdriver.New(cfg.FSSize)
	fs := New(cfg, drv, nil)
	require.NoError(t, fs.Init(context.Background()))
	return fs
}

func Test_FoldName_WithinRangeIsIdentity(t *testing.T) {
	t.Parallel()
	fs := newInternalTestFS(t)

	for name := FileName(0); name < FileName(fs.cfg.MaxFiles); name++ {
		assert.Equal(t, name, fs.foldName(name))
	}
}

func Test_FoldName_OutOfRangeWrapsByModulo(t *testing.T) {
	t.Parallel()
	fs := newInternalTestFS(t)

	assert.Equal(t, FileName(1337%29), fs.foldName(1337))
	assert.Equal(t, FileName(0), fs.foldName(FileName(29)))
	assert.Equal(t, FileName(0), fs.foldName(FileName(29*5)))
}

// allocateBlock must read the old head's "next" pointer before the
// cached free head is advanced, since the read and the advance both
// reference the same block.
func Test_AllocateBlock_PullsHeadAndAdvancesFreeChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newInternalTestFS(t)

	firstHead := fs.freeHead()
	require.NotEqual(t, NullLBA, firstHead)

	wantNext, err := fs.readBlockNext(ctx, firstHead)
	require.NoError(t, err)

	got, err := fs.allocateBlock(ctx, []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, firstHead, got)
	assert.Equal(t, wantNext, fs.freeHead())
}

func Test_AllocateBlock_ExhaustedFreeChainReturnsErrNoSpace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newInternalTestFS(t)

	n := fs.NumBlocks()
	for i := uint32(0); i < n; i++ {
		_, err := fs.allocateBlock(ctx, []byte("y"))
		require.NoError(t, err)
	}

	_, err := fs.allocateBlock(ctx, []byte("z"))
	assert.ErrorIs(t, err, ErrNoSpace)
}

func Test_Link_CommitsEntryAndFreeHeadMirror(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newInternalTestFS(t)

	block, err := fs.allocateBlock(ctx, []byte("payload"))
	require.NoError(t, err)

	h := &Handle{Name: 5, FileSize: 7, FirstBlock: block, LastBlock: block, Type: HandleWrite}
	require.NoError(t, fs.link(ctx, h))

	assert.Equal(t, AllocEntry{FileSize: 7, FirstBlock: block}, fs.table[5])
	wantHead := fs.freeHead()

	// Reload from storage to confirm both the entry and the sentinel
	// were actually persisted, not just cached in RAM.
	require.NoError(t, fs.loadAllocTable(ctx))
	assert.Equal(t, AllocEntry{FileSize: 7, FirstBlock: block}, fs.table[5])
	assert.Equal(t, wantHead, fs.freeHead())
}

func Test_Unlink_AppendsToFreeChainTail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newInternalTestFS(t)

	block, err := fs.allocateBlock(ctx, []byte("p"))
	require.NoError(t, err)
	h := &Handle{Name: 2, FileSize: 1, FirstBlock: block, LastBlock: block}
	require.NoError(t, fs.link(ctx, h))
	require.NoError(t, fs.relinkBlock(ctx, block, NullLBA))

	oldTail, err := fs.lastBlockInChain(ctx, fs.freeHead())
	require.NoError(t, err)

	require.NoError(t, fs.unlink(ctx, block))

	// block is now the new tail of the free chain.
	next, err := fs.readBlockNext(ctx, oldTail)
	require.NoError(t, err)
	assert.Equal(t, block, next)

	tail, err := fs.lastBlockInChain(ctx, fs.freeHead())
	require.NoError(t, err)
	assert.Equal(t, block, tail)
}

func Test_Unlink_EmptyFreeChainBecomesNewHead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newInternalTestFS(t)

	n := fs.NumBlocks()
	var last LBA
	for i := uint32(0); i < n; i++ {
		b, err := fs.allocateBlock(ctx, []byte("a"))
		require.NoError(t, err)
		last = b
	}
	require.Equal(t, NullLBA, fs.freeHead())

	require.NoError(t, fs.unlink(ctx, last))
	assert.Equal(t, last, fs.freeHead())
}
