package encode

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

func EncodeInode(inode *Inode, b *[InodeSize]byte) {
	p := b[:]

	putIno(p, inodeInoStart, inode.Ino)
	putU8(p, inodeFileTypeStart, uint8(inode.FileType))
	putU64(p, inodeSizeStart, uint64(inode.Size))
	putU16(p, inodeUIDStart, inode.UID)
	putU16(p, inodeGIDStart, inode.GID)
	putU16(p, inodePermissionsStart, inode.Permissions)

	for i := Byte(0); i < Byte(DirectBlocksCount); i++ {
		putBlock(
			p,
			inodeDirectBlocksStart+i*BlockPointerSize,
			inode.DirectBlocks[i],
		)
	}
}

func DecodeInode(inode *Inode, b *[InodeSize]byte) error {
	p := b[:]

	// validate before mutating the pointee
	ft := FileType(getU8(p, inodeFileTypeStart))
	if err := ft.Validate(); err != nil {
		return fmt.Errorf("decoding inode: %w", err)
	}

	inode.Ino = getIno(p, inodeInoStart)
	inode.FileType = ft
	inode.Size = Byte(getU64(p, inodeSizeStart))
	inode.UID = getU16(p, inodeUIDStart)
	inode.GID = getU16(p, inodeGIDStart)
	inode.Permissions = getU16(p, inodePermissionsStart)

	for i := Byte(0); i < Byte(DirectBlocksCount); i++ {
		inode.DirectBlocks[i] = getBlock(
			p,
			inodeDirectBlocksStart+i*BlockPointerSize,
		)
	}

	return nil
}

const (
	inodeInoStart = 0
	inodeInoSize  = 8
	inodeInoEnd   = inodeInoStart + inodeInoSize

	inodeFileTypeStart = inodeInoEnd
	inodeFileTypeSize  = 1
	inodeFileTypeEnd   = inodeFileTypeStart + inodeFileTypeSize

	inodeSizeStart = inodeFileTypeEnd
	inodeSizeSize  = 8
	inodeSizeEnd   = inodeSizeStart + inodeSizeSize

	inodeUIDStart = inodeSizeEnd
	inodeUIDSize  = 2
	inodeUIDEnd   = inodeUIDStart + inodeUIDSize

	inodeGIDStart = inodeUIDEnd
	inodeGIDSize  = 2
	inodeGIDEnd   = inodeGIDStart + inodeGIDSize

	inodePermissionsStart = inodeGIDEnd
	inodePermissionsSize  = 2
	inodePermissionsEnd   = inodePermissionsStart + inodePermissionsSize

	inodeDirectBlocksStart = inodePermissionsEnd
)
