package fs

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/encode"
	"github.com/weberc2/blockfs/pkg/group"
	. "github.com/weberc2/blockfs/pkg/types"
)

// Mount reads the superblock out of block 0, rejects foreign or unformatted
// images, and constructs one group manager per block group.
func (fs *FileSystem) Mount() error {
	p, err := fs.dev.BlockPtr(0)
	if err != nil {
		return fmt.Errorf("mounting: %w", err)
	}

	var super Superblock
	if err := encode.DecodeSuperblock(
		&super,
		(*[SuperblockSize]byte)(p[:SuperblockSize]),
	); err != nil {
		return fmt.Errorf("mounting: %w", err)
	}

	fs.super = super
	groupCount := fs.super.GroupCount()
	fs.groups = make([]group.Manager, 0, groupCount)
	for i := uint64(0); i < groupCount; i++ {
		fs.groups = append(fs.groups, group.NewManager(fs.dev, &fs.super, i))
	}
	return nil
}
