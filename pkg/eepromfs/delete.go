package eepromfs

import "context"

// Delete folds name as open would, returns the file's blocks to the free
// chain, and resets its allocation entry to empty. Deleting a name with
// no file present does not call unlink: Delete logs that the file does
// not exist, rewrites the already-empty entry, and returns nil, per
// spec.md §4.1.
func (fs *FS) Delete(ctx context.Context, name FileName) error {
	folded := fs.foldName(name)
	fs.log.Debugf(1, "deleting file %d", folded)

	entry := fs.table[folded]
	if entry.FirstBlock != NullLBA {
		if err := fs.unlink(ctx, entry.FirstBlock); err != nil {
			return err
		}
	} else {
		fs.log.Errorf("file %d does not exist", folded)
	}

	fs.table[folded] = AllocEntry{FileSize: 0, FirstBlock: NullLBA}
	if err := fs.persistEntry(ctx, uint32(folded)); err != nil {
		return err
	}

	fs.log.Debugf(1, "file %d successfully deleted", folded)
	return nil
}
