package filedriver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs/filedriver"
)

func Test_Open_CreatesZeroFilledImageWhenMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "image.bin")

	d, err := filedriver.Open(path, 32)
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	buf := make([]byte, 32)
	require.NoError(t, d.Read(ctx, 0, buf))
	assert.Equal(t, make([]byte, 32), buf)
}

func Test_Flush_PersistsWrittenBytesToDisk(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "image.bin")

	d, err := filedriver.Open(path, 16)
	require.NoError(t, err)

	require.NoError(t, d.Write(ctx, 0, []byte("hello world!")))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Close())

	on, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world!"), on[:12])
}

func Test_Open_ReloadsPreviouslyFlushedImage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "image.bin")

	d1, err := filedriver.Open(path, 16)
	require.NoError(t, err)
	require.NoError(t, d1.Write(ctx, 0, []byte("persisted")))
	require.NoError(t, d1.Close())

	d2, err := filedriver.Open(path, 16)
	require.NoError(t, err)
	defer func() { _ = d2.Close() }()

	buf := make([]byte, len("persisted"))
	require.NoError(t, d2.Read(ctx, 0, buf))
	assert.Equal(t, "persisted", string(buf))
}

func Test_Open_SecondOpenOnSameImageTimesOut(t *testing.T) {
	orig := filedriver.LockTimeout
	filedriver.LockTimeout = 50 * time.Millisecond
	defer func() { filedriver.LockTimeout = orig }()

	path := filepath.Join(t.TempDir(), "image.bin")

	d1, err := filedriver.Open(path, 16)
	require.NoError(t, err)
	defer func() { _ = d1.Close() }()

	_, err = filedriver.Open(path, 16)
	assert.Error(t, err, "a second Open while the lock is held must not succeed")
}

func Test_Flush_IsNoOpWhenNotDirty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "image.bin")

	d, err := filedriver.Open(path, 16)
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	require.NoError(t, d.Flush())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "Flush with no pending writes must not create the image file")
}
