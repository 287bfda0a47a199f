package fs

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// Format wipes the device and lays down a fresh filesystem: zeroed blocks,
// a superblock, seeded bitmaps in every group, and an empty root directory
// owned by root with permissions 0755.
func (fs *FileSystem) Format() error {
	zero := make([]byte, BlockSize)
	for b := Block(0); b < fs.dev.BlockCount(); b++ {
		if err := fs.dev.WriteBlock(b, zero); err != nil {
			return fmt.Errorf("formatting: wiping block `%d`: %w", b, err)
		}
	}

	super := NewSuperblock(fs.dev.BlockCount())
	if err := writeSuperblock(fs.dev, &super); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}

	if err := fs.Mount(); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}

	// Mark every group's reserved region in its bitmaps so allocation scans
	// run uniformly from bit 0.
	for i := range fs.groups {
		if err := fs.groups[i].SeedMetadata(); err != nil {
			return fmt.Errorf("formatting: %w", err)
		}
	}

	rootIno, err := fs.groups[0].AllocInode()
	if err != nil {
		return fmt.Errorf("formatting: allocating root inode: %w", err)
	}

	fs.super.HomeDirInode = rootIno
	if err := writeSuperblock(fs.dev, &fs.super); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}

	root := Inode{
		Ino:         rootIno,
		FileType:    FileTypeDir,
		Permissions: DefaultDirPermissions,
	}
	if err := fs.putInode(&root); err != nil {
		return fmt.Errorf("formatting: initializing root inode: %w", err)
	}
	return nil
}

// writeSuperblock serializes `super` into a full zero-padded block 0; the
// tail of the block is always zero.
func writeSuperblock(dev *device.Device, super *Superblock) error {
	block := make([]byte, BlockSize)
	encode.EncodeSuperblock(
		super,
		(*[SuperblockSize]byte)(block[:SuperblockSize]),
	)
	if err := dev.WriteBlock(0, block); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}
