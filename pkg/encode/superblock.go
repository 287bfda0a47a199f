package encode

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

func EncodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) {
	p := b[:]
	putU32(p, superblockMagicStart, sb.Magic)
	putU64(p, superblockTotalInodesStart, uint64(sb.TotalInodes))
	putU64(p, superblockTotalBlocksStart, uint64(sb.TotalBlocks))
	putU64(p, superblockInodesPerGroupStart, uint64(sb.InodesPerGroup))
	putU64(p, superblockBlocksPerGroupStart, uint64(sb.BlocksPerGroup))
	putIno(p, superblockHomeDirInodeStart, sb.HomeDirInode)
}

// DecodeSuperblock rejects images whose magic doesn't match before touching
// the output.
func DecodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) error {
	p := b[:]

	magic := getU32(p, superblockMagicStart)
	if magic != SuperblockMagic {
		return fmt.Errorf(
			"decoding superblock: bad magic: wanted `%#08x`; found `%#08x`: "+
				"%w",
			SuperblockMagic,
			magic,
			InvalidImageErr,
		)
	}

	sb.Magic = magic
	sb.TotalInodes = Ino(getU64(p, superblockTotalInodesStart))
	sb.TotalBlocks = Block(getU64(p, superblockTotalBlocksStart))
	sb.InodesPerGroup = Ino(getU64(p, superblockInodesPerGroupStart))
	sb.BlocksPerGroup = Block(getU64(p, superblockBlocksPerGroupStart))
	sb.HomeDirInode = getIno(p, superblockHomeDirInodeStart)
	return nil
}

const (
	superblockMagicStart = 0
	superblockMagicSize  = 4
	superblockMagicEnd   = superblockMagicStart + superblockMagicSize

	superblockTotalInodesStart = superblockMagicEnd
	superblockTotalInodesSize  = 8
	superblockTotalInodesEnd   = superblockTotalInodesStart +
		superblockTotalInodesSize

	superblockTotalBlocksStart = superblockTotalInodesEnd
	superblockTotalBlocksSize  = 8
	superblockTotalBlocksEnd   = superblockTotalBlocksStart +
		superblockTotalBlocksSize

	superblockInodesPerGroupStart = superblockTotalBlocksEnd
	superblockInodesPerGroupSize  = 8
	superblockInodesPerGroupEnd   = superblockInodesPerGroupStart +
		superblockInodesPerGroupSize

	superblockBlocksPerGroupStart = superblockInodesPerGroupEnd
	superblockBlocksPerGroupSize  = 8
	superblockBlocksPerGroupEnd   = superblockBlocksPerGroupStart +
		superblockBlocksPerGroupSize

	superblockHomeDirInodeStart = superblockBlocksPerGroupEnd
	superblockHomeDirInodeSize  = 8
	superblockHomeDirInodeEnd   = superblockHomeDirInodeStart +
		superblockHomeDirInodeSize
)
