package eepromfs

import "context"

// Close commits a write/append run to the named file's allocation entry.
// See spec.md §4.1's three-way branch:
//
//   - WRITE (any prior file's blocks are left in place, per the original
//     source's behavior — only APPEND reclaims the old chain): link the
//     new run directly, replacing the allocation entry wholesale.
//   - APPEND with existingSize <= BlockDataSize: the old content was
//     already merged into the new run by Write, so the single old block
//     is unlinked (if any) and the new run is linked in its place.
//   - APPEND with existingSize > BlockDataSize: the old chain's content
//     was left untouched by Write, so the new run is spliced onto the
//     existing chain's last block and the allocation entry's filesize is
//     summed, per SPEC_FULL.md §C.2.
//
// In every branch, the final step is always relinking h.LastBlock's
// "next" to NullLBA — committing the terminator last so a crash mid-close
// leaves the FAT still internally consistent (spec.md §4.3).
func (fs *FS) Close(ctx context.Context, h *Handle) error {
	fs.log.Debugf(1, "finalising file %d", h.Name)

	if h.Type == HandleAppend {
		existing := fs.table[h.Name]

		if existing.FileSize > blockDataSize(fs.cfg) {
			h.FileSize += existing.FileSize

			last, err := fs.lastBlockInChain(ctx, existing.FirstBlock)
			if err != nil {
				return err
			}

			fs.log.Debugf(2, "appending block %d to block %d...", h.FirstBlock, last)
			if err := fs.relinkBlock(ctx, last, h.FirstBlock); err != nil {
				return err
			}
			fs.log.Debugf(2, "done")

			fs.table[h.Name].FileSize = h.FileSize
			if err := fs.persistEntry(ctx, uint32(h.Name)); err != nil {
				return err
			}
			if err := fs.persistEntry(ctx, fs.freeSentinel()); err != nil {
				return err
			}
		} else {
			if existing.FirstBlock != NullLBA {
				if err := fs.unlink(ctx, existing.FirstBlock); err != nil {
					return err
				}
			}
			if err := fs.link(ctx, h); err != nil {
				return err
			}
		}
	} else {
		if err := fs.link(ctx, h); err != nil {
			return err
		}
	}

	fs.log.Debugf(2, "marking end of file %d", h.Name)
	if err := fs.relinkBlock(ctx, h.LastBlock, NullLBA); err != nil {
		return err
	}

	fs.log.Debugf(1, "file %d successfully finalised", h.Name)
	return nil
}
