package fs

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/encode"
	"github.com/weberc2/blockfs/pkg/group"
	. "github.com/weberc2/blockfs/pkg/types"
)

func (fs *FileSystem) groupOfIno(ino Ino) (*group.Manager, error) {
	if len(fs.groups) == 0 {
		return nil, NotMountedErr
	}
	id := fs.super.GroupOfIno(ino)
	if id >= uint64(len(fs.groups)) {
		return nil, fmt.Errorf(
			"resolving group of inode `%d`: %w",
			ino,
			OutOfRangeErr,
		)
	}
	return &fs.groups[id], nil
}

func (fs *FileSystem) groupOfBlock(b Block) (*group.Manager, error) {
	if len(fs.groups) == 0 {
		return nil, NotMountedErr
	}
	id := fs.super.GroupOfBlock(b)
	if id >= uint64(len(fs.groups)) {
		return nil, fmt.Errorf(
			"resolving group of block `%d`: %w",
			b,
			OutOfRangeErr,
		)
	}
	return &fs.groups[id], nil
}

func (fs *FileSystem) getInode(ino Ino, out *Inode) error {
	g, err := fs.groupOfIno(ino)
	if err != nil {
		return err
	}
	return g.GetInode(ino, out)
}

func (fs *FileSystem) putInode(inode *Inode) error {
	g, err := fs.groupOfIno(inode.Ino)
	if err != nil {
		return err
	}
	return g.PutInode(inode)
}

// traverseToParent walks every component but the last, starting from the
// root directory, and returns the inode id of the last component's parent.
// An empty or single-component list addresses the root itself.
func (fs *FileSystem) traverseToParent(components []string) (Ino, error) {
	current := fs.super.HomeDirInode
	if len(components) < 2 {
		return current, nil
	}

	for _, component := range components[:len(components)-1] {
		var dir Inode
		if err := fs.getInode(current, &dir); err != nil {
			return InoNil, fmt.Errorf(
				"traversing to `%s`: %w",
				component,
				err,
			)
		}
		if dir.FileType != FileTypeDir {
			return InoNil, fmt.Errorf(
				"traversing to `%s`: inode `%d`: %w",
				component,
				current,
				NotADirErr,
			)
		}
		next, found, err := fs.findInDir(&dir, component)
		if err != nil {
			return InoNil, fmt.Errorf("traversing to `%s`: %w", component, err)
		}
		if !found {
			return InoNil, fmt.Errorf(
				"traversing to `%s`: %w",
				component,
				PathNotFoundErr,
			)
		}
		current = next
	}
	return current, nil
}

// findInDir scans the directory's blocks for an entry named `name`. The
// scan stops at the first unused block pointer; entries never live beyond
// it because directory blocks are allocated in order.
func (fs *FileSystem) findInDir(
	dir *Inode,
	name string,
) (Ino, bool, error) {
	for i := Block(0); i < DirectBlocksCount; i++ {
		b := dir.DirectBlocks[i]
		if b == BlockNil {
			break
		}
		p, err := fs.dev.BlockPtr(b)
		if err != nil {
			return InoNil, false, fmt.Errorf(
				"searching dir `%d` for `%s`: %w",
				dir.Ino,
				name,
				err,
			)
		}
		for slot := 0; slot < DirEntriesPerBlock; slot++ {
			var entry DirEntry
			start := Byte(slot) * DirEntrySize
			encode.DecodeDirEntry(
				&entry,
				(*[DirEntrySize]byte)(p[start:start+DirEntrySize]),
			)
			if entry.Ino != InoNil && entry.Name == name {
				return entry.Ino, true, nil
			}
		}
	}
	return InoNil, false, nil
}

// loadParent resolves and loads the directory that holds the path's last
// component, failing with NotADirErr if the resolved inode is not a
// directory.
func (fs *FileSystem) loadParent(
	components []string,
	parent *Inode,
) error {
	parentIno, err := fs.traverseToParent(components)
	if err != nil {
		return err
	}
	if err := fs.getInode(parentIno, parent); err != nil {
		return err
	}
	if parent.FileType != FileTypeDir {
		return fmt.Errorf("inode `%d`: %w", parentIno, NotADirErr)
	}
	return nil
}
