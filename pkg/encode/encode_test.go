package encode

import (
	"errors"
	"strings"
	"testing"

	. "github.com/weberc2/blockfs/pkg/types"
)

func TestSuperblockRoundTrip(t *testing.T) {
	wanted := Superblock{
		Magic:          SuperblockMagic,
		TotalInodes:    8192,
		TotalBlocks:    8192,
		InodesPerGroup: 4096,
		BlocksPerGroup: 4096,
		HomeDirInode:   1,
	}

	var buf [SuperblockSize]byte
	EncodeSuperblock(&wanted, &buf)

	var found Superblock
	if err := DecodeSuperblock(&found, &buf); err != nil {
		t.Fatalf("DecodeSuperblock(): unexpected err: %v", err)
	}
	if found != wanted {
		t.Fatalf("wanted `%+v`; found `%+v`", wanted, found)
	}
}

func TestSuperblockBadMagic(t *testing.T) {
	var buf [SuperblockSize]byte

	var found Superblock
	err := DecodeSuperblock(&found, &buf)
	if !errors.Is(err, InvalidImageErr) {
		t.Fatalf("wanted `%v`; found `%v`", InvalidImageErr, err)
	}
}

func TestInodeRoundTrip(t *testing.T) {
	wanted := Inode{
		Ino:         4097,
		FileType:    FileTypeRegular,
		Size:        12345,
		UID:         100,
		GID:         200,
		Permissions: 0o644,
	}
	wanted.DirectBlocks[0] = 35
	wanted.DirectBlocks[11] = 4095

	var buf [InodeSize]byte
	EncodeInode(&wanted, &buf)

	var found Inode
	if err := DecodeInode(&found, &buf); err != nil {
		t.Fatalf("DecodeInode(): unexpected err: %v", err)
	}
	if found != wanted {
		t.Fatalf("wanted `%+v`; found `%+v`", wanted, found)
	}
}

func TestInodeDecodeInvalidType(t *testing.T) {
	var buf [InodeSize]byte
	buf[8] = 0xFF // file type slot

	var found Inode
	if err := DecodeInode(&found, &buf); !errors.Is(
		err,
		InvalidFileTypeErr,
	) {
		t.Fatalf("wanted `%v`; found `%v`", InvalidFileTypeErr, err)
	}
}

func TestDirEntryRoundTrip(t *testing.T) {
	wanted := DirEntry{Ino: 42, Name: "config.txt"}

	var buf [DirEntrySize]byte
	EncodeDirEntry(&wanted, &buf)

	var found DirEntry
	DecodeDirEntry(&found, &buf)
	if found.Ino != wanted.Ino {
		t.Fatalf("Ino: wanted `%d`; found `%d`", wanted.Ino, found.Ino)
	}
	if found.Name != wanted.Name {
		t.Fatalf("Name: wanted `%s`; found `%s`", wanted.Name, found.Name)
	}
	if found.NameLen != uint8(len(wanted.Name)) {
		t.Fatalf(
			"NameLen: wanted `%d`; found `%d`",
			len(wanted.Name),
			found.NameLen,
		)
	}
}

// Overlong names truncate to 254 bytes so a trailing zero always remains in
// the on-disk name buffer.
func TestDirEntryNameTruncation(t *testing.T) {
	entry := DirEntry{Ino: 7, Name: strings.Repeat("x", 300)}

	var buf [DirEntrySize]byte
	EncodeDirEntry(&entry, &buf)

	if buf[8] != DirEntryNameCap-1 {
		t.Fatalf("NameLen: wanted `%d`; found `%d`", DirEntryNameCap-1, buf[8])
	}
	if buf[DirEntrySize-1] != 0 {
		t.Fatalf("name buffer tail: wanted `0`; found `%d`", buf[DirEntrySize-1])
	}

	var found DirEntry
	DecodeDirEntry(&found, &buf)
	if len(found.Name) != DirEntryNameCap-1 {
		t.Fatalf(
			"decoded name length: wanted `%d`; found `%d`",
			DirEntryNameCap-1,
			len(found.Name),
		)
	}
}

// Reusing a slot for a shorter name must not leak bytes of the previous
// name.
func TestDirEntryOverwriteZeroesName(t *testing.T) {
	var buf [DirEntrySize]byte
	EncodeDirEntry(&DirEntry{Ino: 1, Name: "longer-name.bin"}, &buf)
	EncodeDirEntry(&DirEntry{Ino: 2, Name: "a"}, &buf)

	var found DirEntry
	DecodeDirEntry(&found, &buf)
	if found.Name != "a" {
		t.Fatalf("Name: wanted `a`; found `%s`", found.Name)
	}
	for i := 10; i < int(DirEntrySize); i++ {
		if buf[i] != 0 {
			t.Fatalf("stale name byte at offset `%d`: `%d`", i, buf[i])
		}
	}
}
