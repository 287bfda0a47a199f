package fs

import (
	"errors"
	"fmt"

	"github.com/weberc2/blockfs/pkg/math"
	"github.com/weberc2/blockfs/pkg/paths"
	. "github.com/weberc2/blockfs/pkg/types"
)

// WriteFile replaces the file's contents with `data`, shrinking or growing
// its direct block map as needed. Payloads larger than the direct map can
// address fail with FileTooLargeErr. On a mid-write allocation failure the
// mutations applied so far stand; there is no rollback.
func (fs *FileSystem) WriteFile(path string, data []byte) error {
	var inode Inode
	if err := fs.resolveFile(path, &inode); err != nil {
		return fmt.Errorf("writing file `%s`: %w", path, err)
	}
	if !fs.check(&inode, PermWrite) {
		return fmt.Errorf("writing file `%s`: %w", path, PermissionDeniedErr)
	}

	used := Block(math.DivRoundUp(Byte(len(data)), BlockSize))
	if used > DirectBlocksCount {
		return fmt.Errorf(
			"writing file `%s`: `%d` bytes: %w",
			path,
			len(data),
			FileTooLargeErr,
		)
	}

	// shrink: release trailing blocks the new contents no longer cover
	for i := used; i < DirectBlocksCount; i++ {
		b := inode.DirectBlocks[i]
		if b == BlockNil {
			continue
		}
		g, err := fs.groupOfBlock(b)
		if err != nil {
			return fmt.Errorf("writing file `%s`: %w", path, err)
		}
		if err := g.FreeBlock(b); err != nil {
			return fmt.Errorf("writing file `%s`: %w", path, err)
		}
		inode.DirectBlocks[i] = BlockNil
	}

	for i := Block(0); i < used; i++ {
		if inode.DirectBlocks[i] == BlockNil {
			g, err := fs.groupOfIno(inode.Ino)
			if err != nil {
				return fmt.Errorf("writing file `%s`: %w", path, err)
			}
			b, err := g.AllocBlock()
			if err != nil {
				// persist the pointers mutated so far before surfacing
				_ = fs.putInode(&inode)
				if errors.Is(err, NoSpaceErr) {
					err = DiskFullErr
				}
				return fmt.Errorf("writing file `%s`: %w", path, err)
			}
			inode.DirectBlocks[i] = b
		}

		p, err := fs.dev.BlockPtr(inode.DirectBlocks[i])
		if err != nil {
			return fmt.Errorf("writing file `%s`: %w", path, err)
		}
		start := Byte(i) * BlockSize
		size := math.Min(BlockSize, Byte(len(data))-start)
		copy(p[:size], data[start:start+size])
	}

	inode.Size = Byte(len(data))
	if err := fs.putInode(&inode); err != nil {
		return fmt.Errorf("writing file `%s`: %w", path, err)
	}
	return nil
}

// resolveFile resolves `path` to a regular file inode.
func (fs *FileSystem) resolveFile(path string, out *Inode) error {
	ino, err := fs.resolveTarget(path, FileNotFoundErr)
	if err != nil {
		return err
	}
	if err := fs.getInode(ino, out); err != nil {
		return err
	}
	if out.FileType != FileTypeRegular {
		return fmt.Errorf("inode `%d`: %w", ino, NotAFileErr)
	}
	return nil
}

// resolveTarget resolves a path to the inode it names, reporting a missing
// final component as `missing` (the file/directory flavor of not-found).
// The empty path names the root directory.
func (fs *FileSystem) resolveTarget(
	path string,
	missing ConstError,
) (Ino, error) {
	components := paths.Split(path)
	if len(components) == 0 {
		return fs.super.HomeDirInode, nil
	}
	name := components[len(components)-1]

	var parent Inode
	if err := fs.loadParent(components, &parent); err != nil {
		return InoNil, err
	}
	ino, found, err := fs.findInDir(&parent, name)
	if err != nil {
		return InoNil, err
	}
	if !found {
		return InoNil, fmt.Errorf("`%s`: %w", name, missing)
	}
	return ino, nil
}
