package fs

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/paths"
	. "github.com/weberc2/blockfs/pkg/types"
)

// DeleteFile removes the named entry from its parent directory and releases
// the inode and its data blocks. The gate is write permission on the parent
// directory.
func (fs *FileSystem) DeleteFile(path string) error {
	components := paths.Split(path)
	if len(components) == 0 {
		return fmt.Errorf("deleting file `%s`: %w", path, InvalidPathErr)
	}
	name := components[len(components)-1]

	var parent Inode
	if err := fs.loadParent(components, &parent); err != nil {
		return fmt.Errorf("deleting file `%s`: %w", path, err)
	}
	if !fs.check(&parent, PermWrite) {
		return fmt.Errorf("deleting file `%s`: %w", path, PermissionDeniedErr)
	}

	ino, found, err := fs.findInDir(&parent, name)
	if err != nil {
		return fmt.Errorf("deleting file `%s`: %w", path, err)
	}
	if !found {
		return fmt.Errorf("deleting file `%s`: %w", path, FileNotFoundErr)
	}

	if err := fs.releaseFileResources(ino); err != nil {
		return fmt.Errorf("deleting file `%s`: %w", path, err)
	}
	if _, err := fs.removeEntry(&parent, name); err != nil {
		return fmt.Errorf("deleting file `%s`: %w", path, err)
	}
	return nil
}

// DeleteDir removes the named directory and everything beneath it. Only the
// original parent's write permission is checked; the teardown itself never
// re-checks sub-items.
func (fs *FileSystem) DeleteDir(path string) error {
	components := paths.Split(path)
	if len(components) == 0 {
		return fmt.Errorf("deleting dir `%s`: %w", path, InvalidPathErr)
	}
	name := components[len(components)-1]

	var parent Inode
	if err := fs.loadParent(components, &parent); err != nil {
		return fmt.Errorf("deleting dir `%s`: %w", path, err)
	}
	if !fs.check(&parent, PermWrite) {
		return fmt.Errorf("deleting dir `%s`: %w", path, PermissionDeniedErr)
	}

	ino, found, err := fs.findInDir(&parent, name)
	if err != nil {
		return fmt.Errorf("deleting dir `%s`: %w", path, err)
	}
	if !found {
		return fmt.Errorf("deleting dir `%s`: %w", path, DirNotFoundErr)
	}

	var target Inode
	if err := fs.getInode(ino, &target); err != nil {
		return fmt.Errorf("deleting dir `%s`: %w", path, err)
	}
	if target.FileType != FileTypeDir {
		return fmt.Errorf("deleting dir `%s`: %w", path, NotADirErr)
	}

	if err := fs.recursiveRelease(ino); err != nil {
		return fmt.Errorf("deleting dir `%s`: %w", path, err)
	}
	if _, err := fs.removeEntry(&parent, name); err != nil {
		return fmt.Errorf("deleting dir `%s`: %w", path, err)
	}
	return nil
}

// releaseFileResources frees every data block the inode owns, clears its
// pointers, and frees the inode slot. No other inode field is scrubbed.
func (fs *FileSystem) releaseFileResources(ino Ino) error {
	var inode Inode
	if err := fs.getInode(ino, &inode); err != nil {
		return fmt.Errorf("releasing inode `%d`: %w", ino, err)
	}

	for i := Block(0); i < DirectBlocksCount; i++ {
		b := inode.DirectBlocks[i]
		if b == BlockNil {
			continue
		}
		g, err := fs.groupOfBlock(b)
		if err != nil {
			return fmt.Errorf("releasing inode `%d`: %w", ino, err)
		}
		if err := g.FreeBlock(b); err != nil {
			return fmt.Errorf("releasing inode `%d`: %w", ino, err)
		}
		inode.DirectBlocks[i] = BlockNil
	}
	if err := fs.putInode(&inode); err != nil {
		return fmt.Errorf("releasing inode `%d`: %w", ino, err)
	}

	g, err := fs.groupOfIno(ino)
	if err != nil {
		return fmt.Errorf("releasing inode `%d`: %w", ino, err)
	}
	if err := g.FreeInode(ino); err != nil {
		return fmt.Errorf("releasing inode `%d`: %w", ino, err)
	}
	return nil
}

// recursiveRelease tears down the subtree rooted at `dirIno` with an
// explicit work stack, so arbitrarily deep trees cannot exhaust the call
// stack. Files are released as they are encountered; directories are pushed
// and processed in turn, their blocks freed after their entries are
// scanned.
func (fs *FileSystem) recursiveRelease(dirIno Ino) error {
	stack := []Ino{dirIno}
	for len(stack) > 0 {
		ino := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var dir Inode
		if err := fs.getInode(ino, &dir); err != nil {
			return fmt.Errorf("releasing dir `%d`: %w", ino, err)
		}

		for i := Block(0); i < DirectBlocksCount; i++ {
			b := dir.DirectBlocks[i]
			if b == BlockNil {
				continue
			}
			children, err := fs.dirBlockEntries(b)
			if err != nil {
				return fmt.Errorf("releasing dir `%d`: %w", ino, err)
			}
			for _, child := range children {
				var inode Inode
				if err := fs.getInode(child, &inode); err != nil {
					return fmt.Errorf("releasing dir `%d`: %w", ino, err)
				}
				if inode.FileType == FileTypeDir {
					stack = append(stack, child)
					continue
				}
				if err := fs.releaseFileResources(child); err != nil {
					return fmt.Errorf("releasing dir `%d`: %w", ino, err)
				}
			}
			g, err := fs.groupOfBlock(b)
			if err != nil {
				return fmt.Errorf("releasing dir `%d`: %w", ino, err)
			}
			if err := g.FreeBlock(b); err != nil {
				return fmt.Errorf("releasing dir `%d`: %w", ino, err)
			}
		}

		g, err := fs.groupOfIno(ino)
		if err != nil {
			return fmt.Errorf("releasing dir `%d`: %w", ino, err)
		}
		if err := g.FreeInode(ino); err != nil {
			return fmt.Errorf("releasing dir `%d`: %w", ino, err)
		}
	}
	return nil
}

// dirBlockEntries collects the inode ids of every live entry in one
// directory block.
func (fs *FileSystem) dirBlockEntries(b Block) ([]Ino, error) {
	p, err := fs.dev.BlockPtr(b)
	if err != nil {
		return nil, err
	}
	var children []Ino
	for slot := 0; slot < DirEntriesPerBlock; slot++ {
		start := Byte(slot) * DirEntrySize
		ino := decodeEntryIno(p[start : start+DirEntrySize])
		if ino != InoNil {
			children = append(children, ino)
		}
	}
	return children, nil
}
