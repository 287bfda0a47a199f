package fs

import (
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/weberc2/blockfs/pkg/device"
	. "github.com/weberc2/blockfs/pkg/types"
)

// newTestFS formats a fresh image in a temp dir and returns the mounted
// filesystem plus the image path (for reopen-style tests).
func newTestFS(t *testing.T, capacity Byte) (*FileSystem, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.img")
	dev, err := device.New(path, capacity)
	if err != nil {
		t.Fatalf("device.New(): unexpected err: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })

	fileSystem := New(dev)
	if err := fileSystem.Format(); err != nil {
		t.Fatalf("Format(): unexpected err: %v", err)
	}
	return fileSystem, path
}

func mustCheckClean(t *testing.T, fileSystem *FileSystem) {
	t.Helper()
	violations, err := fileSystem.CheckImage()
	if err != nil {
		t.Fatalf("CheckImage(): unexpected err: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("CheckImage(): found violations: %v", violations)
	}
}

func TestFormat(t *testing.T) {
	fileSystem, _ := newTestFS(t, 16*1024*1024)

	super := fileSystem.Superblock()
	if super.Magic != SuperblockMagic {
		t.Fatalf(
			"superblock magic: wanted `%#08x`; found `%#08x`",
			SuperblockMagic,
			super.Magic,
		)
	}
	if super.TotalBlocks != 4096 {
		t.Fatalf(
			"superblock total blocks: wanted `4096`; found `%d`",
			super.TotalBlocks,
		)
	}
	if super.HomeDirInode == InoNil {
		t.Fatal("superblock root inode: found reserved ino 0")
	}

	// a fresh root is an empty directory owned by root with mode 0755
	infos, err := fileSystem.ListDir("/")
	if err != nil {
		t.Fatalf("ListDir(`/`): unexpected err: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("ListDir(`/`): wanted `0` entries; found `%d`", len(infos))
	}

	var root Inode
	if err := fileSystem.getInode(super.HomeDirInode, &root); err != nil {
		t.Fatalf("loading root inode: unexpected err: %v", err)
	}
	if root.FileType != FileTypeDir {
		t.Fatalf("root file type: wanted `Dir`; found `%s`", root.FileType)
	}
	if root.Permissions != 0o755 || root.UID != 0 || root.GID != 0 {
		t.Fatalf(
			"root owner/mode: wanted `0/0/0755`; found `%d/%d/%04o`",
			root.UID,
			root.GID,
			root.Permissions,
		)
	}

	mustCheckClean(t, fileSystem)
}

// Tiny images collapse to a single group covering every block.
func TestFormatTinyImage(t *testing.T) {
	fileSystem, _ := newTestFS(t, 1024*BlockSize)

	super := fileSystem.Superblock()
	if super.BlocksPerGroup != 1024 || super.InodesPerGroup != 1024 {
		t.Fatalf(
			"tiny image group geometry: wanted `1024/1024`; found `%d/%d`",
			super.BlocksPerGroup,
			super.InodesPerGroup,
		)
	}
	mustCheckClean(t, fileSystem)
}

func TestMountRejectsForeignImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.img")
	dev, err := device.New(path, 1024*BlockSize)
	if err != nil {
		t.Fatalf("device.New(): unexpected err: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })

	if err := New(dev).Mount(); !errors.Is(err, InvalidImageErr) {
		t.Fatalf("Mount(): wanted `%v`; found `%v`", InvalidImageErr, err)
	}
}

func TestOperationsBeforeMount(t *testing.T) {
	dev, err := device.New(
		filepath.Join(t.TempDir(), "unmounted.img"),
		1024*BlockSize,
	)
	if err != nil {
		t.Fatalf("device.New(): unexpected err: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })

	fileSystem := New(dev)
	if _, err := fileSystem.ListDir("/"); !errors.Is(err, NotMountedErr) {
		t.Fatalf("ListDir(): wanted `%v`; found `%v`", NotMountedErr, err)
	}
	if err := fileSystem.CreateFile("/x"); !errors.Is(err, NotMountedErr) {
		t.Fatalf("CreateFile(): wanted `%v`; found `%v`", NotMountedErr, err)
	}
}

func TestCreateIsIdempotentOnFailure(t *testing.T) {
	fileSystem, _ := newTestFS(t, 16*1024*1024)

	if err := fileSystem.CreateDir("/home"); err != nil {
		t.Fatalf("CreateDir(): unexpected err: %v", err)
	}
	if err := fileSystem.CreateDir("/home"); !errors.Is(err, ExistsErr) {
		t.Fatalf("CreateDir(): wanted `%v`; found `%v`", ExistsErr, err)
	}

	// the failed second create must not leave any trace
	infos, err := fileSystem.ListDir("/")
	if err != nil {
		t.Fatalf("ListDir(`/`): unexpected err: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "home" {
		t.Fatalf("ListDir(`/`): wanted one entry `home`; found `%+v`", infos)
	}
	mustCheckClean(t, fileSystem)
}

func TestCreateFileDefaults(t *testing.T) {
	fileSystem, _ := newTestFS(t, 16*1024*1024)

	if err := fileSystem.CreateFile("/a.txt"); err != nil {
		t.Fatalf("CreateFile(): unexpected err: %v", err)
	}

	infos, err := fileSystem.ListDir("/")
	if err != nil {
		t.Fatalf("ListDir(`/`): unexpected err: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("ListDir(`/`): wanted `1` entry; found `%d`", len(infos))
	}
	info := infos[0]
	if info.Name != "a.txt" || info.IsDir ||
		info.Permissions != 0o644 || info.UID != 0 || info.GID != 0 {
		t.Fatalf("FileInfo: unexpected `%+v`", info)
	}
}

func TestCreateInvalidPath(t *testing.T) {
	fileSystem, _ := newTestFS(t, 16*1024*1024)

	for _, path := range []string{"", "/", "///"} {
		if err := fileSystem.CreateFile(path); !errors.Is(
			err,
			InvalidPathErr,
		) {
			t.Fatalf(
				"CreateFile(`%s`): wanted `%v`; found `%v`",
				path,
				InvalidPathErr,
				err,
			)
		}
	}
}

func TestPathErrors(t *testing.T) {
	fileSystem, _ := newTestFS(t, 16*1024*1024)

	if err := fileSystem.CreateDir("/home"); err != nil {
		t.Fatalf("CreateDir(): unexpected err: %v", err)
	}
	if err := fileSystem.CreateFile("/home/f.txt"); err != nil {
		t.Fatalf("CreateFile(): unexpected err: %v", err)
	}

	if err := fileSystem.CreateFile("/missing/f.txt"); !errors.Is(
		err,
		PathNotFoundErr,
	) {
		t.Fatalf("wanted `%v`; found `%v`", PathNotFoundErr, err)
	}

	// a regular file used as an intermediate path node
	if err := fileSystem.CreateFile("/home/f.txt/g.txt"); !errors.Is(
		err,
		NotADirErr,
	) {
		t.Fatalf("wanted `%v`; found `%v`", NotADirErr, err)
	}

	if _, err := fileSystem.ReadFile("/home/missing.txt"); !errors.Is(
		err,
		FileNotFoundErr,
	) {
		t.Fatalf("wanted `%v`; found `%v`", FileNotFoundErr, err)
	}

	if _, err := fileSystem.ReadFile("/home"); !errors.Is(
		err,
		NotAFileErr,
	) {
		t.Fatalf("wanted `%v`; found `%v`", NotAFileErr, err)
	}

	if _, err := fileSystem.ListDir("/home/f.txt"); !errors.Is(
		err,
		NotADirErr,
	) {
		t.Fatalf("wanted `%v`; found `%v`", NotADirErr, err)
	}

	if _, err := fileSystem.ListDir("/nope"); !errors.Is(
		err,
		DirNotFoundErr,
	) {
		t.Fatalf("wanted `%v`; found `%v`", DirNotFoundErr, err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	fileSystem, _ := newTestFS(t, 16*1024*1024)

	if err := fileSystem.CreateFile("/data.bin"); err != nil {
		t.Fatalf("CreateFile(): unexpected err: %v", err)
	}

	// sizes chosen around the block and map boundaries
	sizes := []int{0, 1, 4095, 4096, 4097, 12288, 49151, 49152}
	rng := rand.New(rand.NewSource(1))
	for _, size := range sizes {
		wanted := make([]byte, size)
		rng.Read(wanted)
		if err := fileSystem.WriteFile("/data.bin", wanted); err != nil {
			t.Fatalf("WriteFile() of `%d` bytes: unexpected err: %v", size, err)
		}
		found, err := fileSystem.ReadFile("/data.bin")
		if err != nil {
			t.Fatalf("ReadFile() of `%d` bytes: unexpected err: %v", size, err)
		}
		if !bytes.Equal(wanted, found) {
			t.Fatalf("round trip of `%d` bytes: contents differ", size)
		}
		mustCheckClean(t, fileSystem)
	}
}

func TestMaxFileSize(t *testing.T) {
	fileSystem, _ := newTestFS(t, 16*1024*1024)

	if err := fileSystem.CreateFile("/max.bin"); err != nil {
		t.Fatalf("CreateFile(): unexpected err: %v", err)
	}

	wanted := make([]byte, MaxFileSize)
	rand.New(rand.NewSource(2)).Read(wanted)
	if err := fileSystem.WriteFile("/max.bin", wanted); err != nil {
		t.Fatalf("WriteFile() at max size: unexpected err: %v", err)
	}

	found, err := fileSystem.ReadFile("/max.bin")
	if err != nil {
		t.Fatalf("ReadFile(): unexpected err: %v", err)
	}
	if len(found) != int(MaxFileSize) {
		t.Fatalf(
			"ReadFile(): wanted `%d` bytes; found `%d`",
			MaxFileSize,
			len(found),
		)
	}
	if !bytes.Equal(wanted, found) {
		t.Fatal("ReadFile(): contents differ")
	}

	over := make([]byte, MaxFileSize+1)
	if err := fileSystem.WriteFile("/max.bin", over); !errors.Is(
		err,
		FileTooLargeErr,
	) {
		t.Fatalf("WriteFile(): wanted `%v`; found `%v`", FileTooLargeErr, err)
	}

	// the oversized write must not have clobbered the contents
	found, err = fileSystem.ReadFile("/max.bin")
	if err != nil {
		t.Fatalf("ReadFile(): unexpected err: %v", err)
	}
	if !bytes.Equal(wanted, found) {
		t.Fatal("ReadFile() after failed write: contents differ")
	}
}

func TestWriteShrinkReleasesBlocks(t *testing.T) {
	fileSystem, _ := newTestFS(t, 1024*BlockSize)

	if err := fileSystem.CreateFile("/f"); err != nil {
		t.Fatalf("CreateFile(): unexpected err: %v", err)
	}
	big := bytes.Repeat([]byte{0xCD}, int(MaxFileSize))
	if err := fileSystem.WriteFile("/f", big); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}
	if err := fileSystem.WriteFile("/f", []byte("tiny")); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}

	var inode Inode
	if err := fileSystem.resolveFile("/f", &inode); err != nil {
		t.Fatalf("resolving `/f`: unexpected err: %v", err)
	}
	if inode.Size != 4 {
		t.Fatalf("file size: wanted `4`; found `%d`", inode.Size)
	}
	for i := Block(1); i < DirectBlocksCount; i++ {
		if inode.DirectBlocks[i] != BlockNil {
			t.Fatalf("trailing block pointer `%d` not cleared", i)
		}
	}
	mustCheckClean(t, fileSystem)
}
