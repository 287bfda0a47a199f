// Package group implements the block-group manager: the owner of one group's
// inode bitmap, data bitmap, and inode table. All state lives in the backing
// device; a Manager is just geometry plus a device handle.
package group

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

type Manager struct {
	dev *device.Device
	sb  *Superblock
	id  uint64
}

func NewManager(dev *device.Device, sb *Superblock, id uint64) Manager {
	return Manager{dev: dev, sb: sb, id: id}
}

func (g *Manager) base() Block {
	return Block(g.id) * g.sb.BlocksPerGroup
}

func (g *Manager) inodeBitmap() ([]byte, error) {
	return g.dev.BlockPtr(g.base() + InodeBitmapOffset)
}

func (g *Manager) dataBitmap() ([]byte, error) {
	return g.dev.BlockPtr(g.base() + BlockBitmapOffset)
}

// SeedMetadata marks the group's reserved blocks in the data bitmap so that
// allocation scans can run uniformly from bit 0: the group-relative reserved
// region [0, 3+T) (block 0, both bitmaps, and the inode table) plus the
// bitmap tail past the image's end when the final group is short. In group 0
// the reserved inode id 0 is marked in the inode bitmap.
func (g *Manager) SeedMetadata() error {
	bitmap, err := g.dataBitmap()
	if err != nil {
		return fmt.Errorf("seeding metadata of group `%d`: %w", g.id, err)
	}
	for i := uint64(0); i < uint64(g.sb.FirstDataBlock()); i++ {
		setBit(bitmap, i)
	}
	for i := uint64(g.sb.GroupBlocks(g.id)); i < uint64(g.sb.BlocksPerGroup); i++ {
		setBit(bitmap, i)
	}

	if g.id == 0 {
		inodeBitmap, err := g.inodeBitmap()
		if err != nil {
			return fmt.Errorf("seeding metadata of group `%d`: %w", g.id, err)
		}
		setBit(inodeBitmap, uint64(InoNil))
	}
	return nil
}

// AllocInode claims the lowest free inode slot, zeroes it, stamps its global
// id, and returns that id.
func (g *Manager) AllocInode() (Ino, error) {
	bitmap, err := g.inodeBitmap()
	if err != nil {
		return InoNil, fmt.Errorf(
			"allocating inode in group `%d`: %w",
			g.id,
			err,
		)
	}

	local, ok := firstZero(bitmap, uint64(g.sb.InodesPerGroup))
	if !ok {
		return InoNil, fmt.Errorf(
			"allocating inode in group `%d`: %w",
			g.id,
			NoSpaceErr,
		)
	}
	setBit(bitmap, local)

	ino := Ino(g.id)*g.sb.InodesPerGroup + Ino(local)
	inode := Inode{Ino: ino}
	if err := g.PutInode(&inode); err != nil {
		clearBit(bitmap, local)
		return InoNil, fmt.Errorf(
			"allocating inode in group `%d`: %w",
			g.id,
			err,
		)
	}
	return ino, nil
}

// FreeInode clears the allocation bit. The inode's bytes are not scrubbed;
// callers must already have released its data blocks.
func (g *Manager) FreeInode(ino Ino) error {
	if _, _, err := g.inodeLocation(ino); err != nil {
		return fmt.Errorf("freeing inode `%d`: %w", ino, err)
	}
	bitmap, err := g.inodeBitmap()
	if err != nil {
		return fmt.Errorf("freeing inode `%d`: %w", ino, err)
	}
	clearBit(bitmap, uint64(ino%g.sb.InodesPerGroup))
	return nil
}

func (g *Manager) InodeAllocated(ino Ino) (bool, error) {
	if _, _, err := g.inodeLocation(ino); err != nil {
		return false, fmt.Errorf("testing inode `%d`: %w", ino, err)
	}
	bitmap, err := g.inodeBitmap()
	if err != nil {
		return false, fmt.Errorf("testing inode `%d`: %w", ino, err)
	}
	return getBit(bitmap, uint64(ino%g.sb.InodesPerGroup)), nil
}

// AllocBlock claims the lowest free data block in the group, zeroes it, and
// returns its global id. Metadata blocks never surface here because their
// bits are seeded at format time.
func (g *Manager) AllocBlock() (Block, error) {
	bitmap, err := g.dataBitmap()
	if err != nil {
		return BlockNil, fmt.Errorf(
			"allocating block in group `%d`: %w",
			g.id,
			err,
		)
	}

	local, ok := firstZero(bitmap, uint64(g.sb.BlocksPerGroup))
	if !ok {
		return BlockNil, fmt.Errorf(
			"allocating block in group `%d`: %w",
			g.id,
			NoSpaceErr,
		)
	}

	global := g.base() + Block(local)
	p, err := g.dev.BlockPtr(global)
	if err != nil {
		return BlockNil, fmt.Errorf(
			"allocating block in group `%d`: %w",
			g.id,
			err,
		)
	}
	setBit(bitmap, local)
	for i := range p {
		p[i] = 0
	}
	return global, nil
}

func (g *Manager) BlockAllocated(b Block) (bool, error) {
	if g.sb.GroupOfBlock(b) != g.id {
		return false, fmt.Errorf(
			"testing block `%d` via group `%d`: %w",
			b,
			g.id,
			OutOfRangeErr,
		)
	}
	bitmap, err := g.dataBitmap()
	if err != nil {
		return false, fmt.Errorf("testing block `%d`: %w", b, err)
	}
	return getBit(bitmap, uint64(b%g.sb.BlocksPerGroup)), nil
}

func (g *Manager) FreeBlock(b Block) error {
	if g.sb.GroupOfBlock(b) != g.id {
		return fmt.Errorf(
			"freeing block `%d` via group `%d`: %w",
			b,
			g.id,
			OutOfRangeErr,
		)
	}
	bitmap, err := g.dataBitmap()
	if err != nil {
		return fmt.Errorf("freeing block `%d`: %w", b, err)
	}
	clearBit(bitmap, uint64(b%g.sb.BlocksPerGroup))
	return nil
}

// GetInode decodes the inode with global id `ino` out of the group's table.
func (g *Manager) GetInode(ino Ino, out *Inode) error {
	p, err := g.inodeSlot(ino)
	if err != nil {
		return fmt.Errorf("reading inode `%d`: %w", ino, err)
	}
	if err := encode.DecodeInode(out, (*[InodeSize]byte)(p)); err != nil {
		return fmt.Errorf("reading inode `%d`: %w", ino, err)
	}
	return nil
}

// PutInode serializes `inode` into its table slot. The slot is addressed by
// `inode.Ino`, which must belong to this group.
func (g *Manager) PutInode(inode *Inode) error {
	p, err := g.inodeSlot(inode.Ino)
	if err != nil {
		return fmt.Errorf("writing inode `%d`: %w", inode.Ino, err)
	}
	encode.EncodeInode(inode, (*[InodeSize]byte)(p))
	return nil
}

func (g *Manager) inodeSlot(ino Ino) ([]byte, error) {
	block, offset, err := g.inodeLocation(ino)
	if err != nil {
		return nil, err
	}
	p, err := g.dev.BlockPtr(block)
	if err != nil {
		return nil, err
	}
	return p[offset : offset+InodeSize], nil
}

func (g *Manager) inodeLocation(ino Ino) (Block, Byte, error) {
	start := Ino(g.id) * g.sb.InodesPerGroup
	if ino < start || ino >= start+g.sb.InodesPerGroup {
		return BlockNil, 0, fmt.Errorf(
			"locating inode `%d` in group `%d` (inodes `%d`..`%d`): %w",
			ino,
			g.id,
			start,
			start+g.sb.InodesPerGroup-1,
			OutOfRangeErr,
		)
	}
	local := Byte(ino % g.sb.InodesPerGroup)
	inodesPerBlock := BlockSize / InodeSize
	block := g.base() + InodeTableOffset + Block(local/inodesPerBlock)
	offset := (local % inodesPerBlock) * InodeSize
	return block, offset, nil
}
