package eepromfs

import "fmt"

// OpenForWrite prepares name for writing. No storage mutation occurs
// until Close; any prior file with that name remains intact until then.
// See spec.md §4.1.
func (fs *FS) OpenForWrite(name FileName) *Handle {
	fs.log.Debugf(1, "preparing file %d for writing", name)
	folded := fs.foldName(name)

	h := &Handle{
		Name:       folded,
		FileSize:   0,
		Type:       HandleWrite,
		FirstBlock: NullLBA,
		LastBlock:  NullLBA,
	}

	fs.log.Debugf(1, "file ready")
	return h
}

// OpenForAppend prepares name for appending. FileSize is seeded from the
// file's pre-existing size, used at Close to decide the merge path. See
// spec.md §4.1.
func (fs *FS) OpenForAppend(name FileName) *Handle {
	fs.log.Debugf(1, "preparing file %d for appending", name)
	folded := fs.foldName(name)

	h := &Handle{
		Name:       folded,
		FileSize:   fs.table[folded].FileSize,
		Type:       HandleAppend,
		FirstBlock: NullLBA,
		LastBlock:  NullLBA,
	}

	fs.log.Debugf(1, "file ready")
	return h
}

// OpenForRead prepares name for reading. Returns ErrFileNotFound if no
// allocation entry exists for the folded name. See spec.md §4.1.
func (fs *FS) OpenForRead(name FileName) (*Handle, error) {
	fs.log.Debugf(1, "preparing file %d for reading", name)
	folded := fs.foldName(name)
	entry := fs.table[folded]

	h := &Handle{
		Name:       folded,
		FileSize:   entry.FileSize,
		Type:       HandleRead,
		FirstBlock: entry.FirstBlock,
		LastBlock:  NullLBA,
	}

	if h.FirstBlock == NullLBA {
		fs.log.Errorf("file %d not found", name)
		return h, fmt.Errorf("%w: %d", ErrFileNotFound, name)
	}

	fs.log.Debugf(1, "file ready")
	return h, nil
}
