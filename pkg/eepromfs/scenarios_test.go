package eepromfs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs"
	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs/faultdriver"
	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs/memdriver"
)

// newTestFS builds an initialized FS over a fresh in-memory medium at the
// default layout (BLOCK_SIZE=32, BLOCK_DATA_SIZE=30, MAX_FILES=29,
// MAX_BLOCKS_PER_FILE=8).
func newTestFS(t *testing.T) (*eepromfs.FS, *memdriver.Driver) {
	t.Helper()

	cfg := eepromfs.DefaultConfig()
	drv := memdriver.New(cfg.FSSize)
	fs := eepromfs.New(cfg, drv, nil)
	require.NoError(t, fs.Init(context.Background()))
	return fs, drv
}

// S1: write then read back a short file.
func Test_Scenario_S1_WriteThenRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, _ := newTestFS(t)

	h := fs.OpenForWrite(6)
	require.NoError(t, fs.Write(ctx, h, []byte("Hello World!\n\x00")))
	require.NoError(t, fs.Close(ctx, h))

	rh, err := fs.OpenForRead(6)
	require.NoError(t, err)
	assert.Equal(t, uint32(14), rh.FileSize)

	buf := make([]byte, rh.FileSize)
	require.NoError(t, fs.Read(ctx, rh, buf))
	assert.Equal(t, "Hello World!\n\x00", string(buf))
}

// S2: deleting a file makes it unreadable and resets its allocation entry.
func Test_Scenario_S2_DeleteThenReadIsFileNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, _ := newTestFS(t)

	h := fs.OpenForWrite(6)
	require.NoError(t, fs.Write(ctx, h, []byte("x")))
	require.NoError(t, fs.Close(ctx, h))

	require.NoError(t, fs.Delete(ctx, 6))

	_, err := fs.OpenForRead(6)
	assert.ErrorIs(t, err, eepromfs.ErrFileNotFound)
}

// S3: appending past a non-block-aligned tail merges the old content in
// front of the new data (old_size=12 <= BLOCK_DATA_SIZE=30).
func Test_Scenario_S3_AppendMergesShortTail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, _ := newTestFS(t)

	const head = "Lorem ipsum "
	const tail = "dolor sit amet\xe2\x80\xa6\n\x00"

	h := fs.OpenForWrite(7)
	require.NoError(t, fs.Write(ctx, h, []byte(head)))
	require.NoError(t, fs.Close(ctx, h))

	ah := fs.OpenForAppend(7)
	require.NoError(t, fs.Write(ctx, ah, []byte(tail)))
	require.NoError(t, fs.Close(ctx, ah))

	rh, err := fs.OpenForRead(7)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(head)+len(tail)), rh.FileSize)

	buf := make([]byte, rh.FileSize)
	require.NoError(t, fs.Read(ctx, rh, buf))
	assert.Equal(t, head+tail, string(buf))
}

// S4: names outside [0, MaxFiles) fold by modulo reduction.
func Test_Scenario_S4_NameFolding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, _ := newTestFS(t)

	const rawName = 1337
	const folded = rawName % 29

	h := fs.OpenForAppend(rawName)
	assert.Equal(t, eepromfs.FileName(folded), h.Name)

	require.NoError(t, fs.Write(ctx, h, []byte("cake! ")))
	require.NoError(t, fs.Close(ctx, h))

	rh, err := fs.OpenForRead(rawName)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), rh.FileSize)

	buf := make([]byte, rh.FileSize)
	require.NoError(t, fs.Read(ctx, rh, buf))
	assert.Equal(t, "cake! ", string(buf))

	rh2, err := fs.OpenForRead(folded)
	require.NoError(t, err)
	assert.Equal(t, rh.FirstBlock, rh2.FirstBlock)
}

// S5: a write exceeding MaxBlocksPerFile*BlockDataSize is truncated, and
// the committed size reflects exactly the blocks that fit.
func Test_Scenario_S5_CapEnforcementTruncates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, _ := newTestFS(t)

	data := make([]byte, 8*30+10)
	for i := range data {
		data[i] = 'a'
	}

	h := fs.OpenForWrite(9)
	err := fs.Write(ctx, h, data)
	require.ErrorIs(t, err, eepromfs.ErrTruncated)
	require.NoError(t, fs.Close(ctx, h))

	rh, err := fs.OpenForRead(9)
	require.NoError(t, err)
	assert.Equal(t, uint32(8*30), rh.FileSize)

	buf := make([]byte, rh.FileSize)
	require.NoError(t, fs.Read(ctx, rh, buf))
	assert.Len(t, buf, 240)
}

// S6: a crash between link's commit and the final terminating relink in
// close. After reinit the unrelated file and the interrupted file's
// allocation entry are intact; the interrupted file's last block still
// holds its old free-chain link, so its chain runs on into the free
// chain, but Read stops at the committed FileSize. Pinned precisely using faultdriver.Rewind to
// stop the medium exactly between close's last persistEntry call and its
// final relinkBlock call.
func Test_Scenario_S6_CrashBetweenLinkAndTerminate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := eepromfs.DefaultConfig()
	fd := faultdriver.New(cfg.FSSize)
	fs := eepromfs.New(cfg, fd, nil)
	require.NoError(t, fs.Init(ctx))

	// An unrelated file that must stay completely intact across the
	// interrupted close of a different file.
	other := fs.OpenForWrite(1)
	require.NoError(t, fs.Write(ctx, other, []byte("untouched")))
	require.NoError(t, fs.Close(ctx, other))

	callsBeforeSecondWrite := fd.CallCount()

	h := fs.OpenForWrite(3)
	require.NoError(t, fs.Write(ctx, h, []byte("first run of exactly one block")))
	require.NoError(t, fs.Close(ctx, h))
	totalCalls := fd.CallCount()
	require.Greater(t, totalCalls, callsBeforeSecondWrite)

	// Rewind to "one call before the end": Close's last act is always
	// the terminating relinkBlock(h.LastBlock, NullLBA), a single Write
	// call, so totalCalls-1 lands immediately before it commits.
	crashed, err := fd.Rewind(totalCalls - 1)
	require.NoError(t, err)

	recovered := eepromfs.New(cfg, crashed, nil)
	require.NoError(t, recovered.Init(ctx))

	// The unrelated file is completely unaffected.
	oh, err := recovered.OpenForRead(1)
	require.NoError(t, err)
	obuf := make([]byte, oh.FileSize)
	require.NoError(t, recovered.Read(ctx, oh, obuf))
	assert.Equal(t, "untouched", string(obuf))

	// File 3 is linked (link() already committed) and readable. The
	// terminator never committed, but Read copies at most len(buf) =
	// FileSize bytes, so the content reads back exactly as written.
	rh, err := recovered.OpenForRead(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(len("first run of exactly one block")), rh.FileSize)

	buf := make([]byte, rh.FileSize)
	require.NoError(t, recovered.Read(ctx, rh, buf))
	assert.Equal(t, "first run of exactly one block", string(buf))
}
