package fs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// decodeEntryIno reads just the inode id out of a raw directory entry slot.
func decodeEntryIno(p []byte) Ino {
	return Ino(binary.LittleEndian.Uint64(p[:InoSize]))
}

// addEntryToDir inserts `(ino, name)` into the first empty slot of the
// parent directory, allocating a fresh directory block from the parent's
// own group when every existing block is full. The parent's size field is
// bookkeeping only (entry count x entry size); iteration never trusts it.
func (fs *FileSystem) addEntryToDir(
	parent *Inode,
	ino Ino,
	name string,
) error {
	for i := Block(0); i < DirectBlocksCount; i++ {
		if parent.DirectBlocks[i] == BlockNil {
			g, err := fs.groupOfIno(parent.Ino)
			if err != nil {
				return fmt.Errorf(
					"adding `%s` to dir `%d`: %w",
					name,
					parent.Ino,
					err,
				)
			}
			b, err := g.AllocBlock()
			if err != nil {
				if errors.Is(err, NoSpaceErr) {
					err = DiskFullErr
				}
				return fmt.Errorf(
					"adding `%s` to dir `%d`: growing directory: %w",
					name,
					parent.Ino,
					err,
				)
			}
			parent.DirectBlocks[i] = b
		}

		p, err := fs.dev.BlockPtr(parent.DirectBlocks[i])
		if err != nil {
			return fmt.Errorf(
				"adding `%s` to dir `%d`: %w",
				name,
				parent.Ino,
				err,
			)
		}
		for slot := 0; slot < DirEntriesPerBlock; slot++ {
			start := Byte(slot) * DirEntrySize
			slotBytes := (*[DirEntrySize]byte)(p[start : start+DirEntrySize])
			var entry DirEntry
			encode.DecodeDirEntry(&entry, slotBytes)
			if entry.Ino != InoNil {
				continue
			}
			encode.EncodeDirEntry(&DirEntry{Ino: ino, Name: name}, slotBytes)
			parent.Size += DirEntrySize
			if err := fs.putInode(parent); err != nil {
				return fmt.Errorf(
					"adding `%s` to dir `%d`: %w",
					name,
					parent.Ino,
					err,
				)
			}
			return nil
		}
	}
	return fmt.Errorf(
		"adding `%s` to dir `%d`: %w",
		name,
		parent.Ino,
		DirFullErr,
	)
}

// removeEntry zeroes the slot holding `name` and decrements the parent's
// bookkeeping size. Reports whether the entry existed.
func (fs *FileSystem) removeEntry(
	parent *Inode,
	name string,
) (bool, error) {
	for i := Block(0); i < DirectBlocksCount; i++ {
		b := parent.DirectBlocks[i]
		if b == BlockNil {
			break
		}
		p, err := fs.dev.BlockPtr(b)
		if err != nil {
			return false, fmt.Errorf(
				"removing `%s` from dir `%d`: %w",
				name,
				parent.Ino,
				err,
			)
		}
		for slot := 0; slot < DirEntriesPerBlock; slot++ {
			start := Byte(slot) * DirEntrySize
			slotBytes := p[start : start+DirEntrySize]
			var entry DirEntry
			encode.DecodeDirEntry(&entry, (*[DirEntrySize]byte)(slotBytes))
			if entry.Ino == InoNil || entry.Name != name {
				continue
			}
			for j := range slotBytes {
				slotBytes[j] = 0
			}
			parent.Size -= DirEntrySize
			if err := fs.putInode(parent); err != nil {
				return false, fmt.Errorf(
					"removing `%s` from dir `%d`: %w",
					name,
					parent.Ino,
					err,
				)
			}
			return true, nil
		}
	}
	return false, nil
}
