package encode

import (
	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

// EncodeDirEntry serializes `entry` into a fixed 264-byte slot. The name
// buffer is zeroed first and at most DirEntryNameCap-1 bytes of the name are
// copied so a trailing zero always remains.
func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	for i := dirEntryNameStart; i < dirEntryNameEnd; i++ {
		p[i] = 0
	}
	nameLen := math.Min(len(entry.Name), DirEntryNameCap-1)
	putIno(p, dirEntryInoStart, entry.Ino)
	putU8(p, dirEntryNameLenStart, uint8(nameLen))
	copy(p[dirEntryNameStart:dirEntryNameEnd], entry.Name[:nameLen])
}

// DecodeDirEntry never reads past NameLen within the name buffer.
func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	entry.Ino = getIno(p, dirEntryInoStart)
	entry.NameLen = getU8(p, dirEntryNameLenStart)
	nameLen := math.Min(int(entry.NameLen), DirEntryNameCap)
	entry.Name = string(
		p[dirEntryNameStart : dirEntryNameStart+Byte(nameLen)],
	)
}

const (
	dirEntryInoStart = 0
	dirEntryInoSize  = 8
	dirEntryInoEnd   = dirEntryInoStart + dirEntryInoSize

	dirEntryNameLenStart = dirEntryInoEnd
	dirEntryNameLenSize  = 1
	dirEntryNameLenEnd   = dirEntryNameLenStart + dirEntryNameLenSize

	dirEntryNameStart = dirEntryNameLenEnd
	dirEntryNameSize  = DirEntryNameCap
	dirEntryNameEnd   = dirEntryNameStart + dirEntryNameSize
)
