package types

import (
	"github.com/weberc2/blockfs/pkg/math"
)

const (
	// SuperblockMagic marks block 0 of a formatted image.
	SuperblockMagic uint32 = 0xF5513001

	// SuperblockSize is the serialized size of the superblock. The
	// remainder of block 0 is always zero.
	SuperblockSize Byte = 44

	// Per-group layout, in blocks relative to the group start. Block 0 of
	// each group is reserved (in group 0 it holds the superblock).
	InodeBitmapOffset Block = 1
	BlockBitmapOffset Block = 2
	InodeTableOffset  Block = 3

	// DefaultGroupSize is the number of blocks (and inode slots) per group
	// for images of at least that many blocks.
	DefaultGroupSize = 4096
)

type Superblock struct {
	Magic          uint32
	TotalInodes    Ino
	TotalBlocks    Block
	InodesPerGroup Ino
	BlocksPerGroup Block
	HomeDirInode   Ino
}

// NewSuperblock computes the geometry for an image of `totalBlocks` blocks.
// Images smaller than DefaultGroupSize blocks become a single group covering
// the whole image.
func NewSuperblock(totalBlocks Block) Superblock {
	groupSize := Block(DefaultGroupSize)
	if totalBlocks < groupSize {
		groupSize = totalBlocks
	}
	groups := math.DivRoundUp(totalBlocks, groupSize)
	return Superblock{
		Magic:          SuperblockMagic,
		TotalInodes:    Ino(groups) * Ino(groupSize),
		TotalBlocks:    totalBlocks,
		InodesPerGroup: Ino(groupSize),
		BlocksPerGroup: groupSize,
		HomeDirInode:   InoNil,
	}
}

func (sb *Superblock) GroupCount() uint64 {
	return uint64(math.DivRoundUp(sb.TotalBlocks, sb.BlocksPerGroup))
}

// InodeTableBlocks is the size of each group's inode table in blocks.
func (sb *Superblock) InodeTableBlocks() Block {
	return Block(math.DivRoundUp(Byte(sb.InodesPerGroup)*InodeSize, BlockSize))
}

// FirstDataBlock is the first group-relative block usable for data.
func (sb *Superblock) FirstDataBlock() Block {
	return InodeTableOffset + sb.InodeTableBlocks()
}

func (sb *Superblock) GroupOfIno(ino Ino) uint64 {
	return uint64(ino / sb.InodesPerGroup)
}

func (sb *Superblock) GroupOfBlock(b Block) uint64 {
	return uint64(b / sb.BlocksPerGroup)
}

// GroupBlocks is the number of blocks that actually exist in group `g`; the
// final group of an image may be short.
func (sb *Superblock) GroupBlocks(g uint64) Block {
	base := Block(g) * sb.BlocksPerGroup
	if base+sb.BlocksPerGroup > sb.TotalBlocks {
		return sb.TotalBlocks - base
	}
	return sb.BlocksPerGroup
}
