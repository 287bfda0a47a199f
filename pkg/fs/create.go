package fs

import (
	"errors"
	"fmt"

	"github.com/weberc2/blockfs/pkg/paths"
	. "github.com/weberc2/blockfs/pkg/types"
)

// CreateFile creates an empty regular file owned by the session user with
// permissions 0644.
func (fs *FileSystem) CreateFile(path string) error {
	if err := fs.createNode(path, FileTypeRegular); err != nil {
		return fmt.Errorf("creating file `%s`: %w", path, err)
	}
	return nil
}

// CreateDir creates an empty directory owned by the session user with
// permissions 0755.
func (fs *FileSystem) CreateDir(path string) error {
	if err := fs.createNode(path, FileTypeDir); err != nil {
		return fmt.Errorf("creating dir `%s`: %w", path, err)
	}
	return nil
}

func (fs *FileSystem) createNode(path string, fileType FileType) error {
	components := paths.Split(path)
	if len(components) == 0 {
		return InvalidPathErr
	}
	name := components[len(components)-1]

	var parent Inode
	if err := fs.loadParent(components, &parent); err != nil {
		return err
	}

	if _, found, err := fs.findInDir(&parent, name); err != nil {
		return err
	} else if found {
		return fmt.Errorf("`%s`: %w", name, ExistsErr)
	}

	ino, err := fs.allocInodeAnyGroup()
	if err != nil {
		return err
	}

	permissions := DefaultFilePermissions
	if fileType == FileTypeDir {
		permissions = DefaultDirPermissions
	}
	inode := Inode{
		Ino:         ino,
		FileType:    fileType,
		UID:         fs.session.UID,
		GID:         fs.session.GID,
		Permissions: permissions,
	}
	if err := fs.putInode(&inode); err != nil {
		return err
	}

	return fs.addEntryToDir(&parent, ino, name)
}

// allocInodeAnyGroup tries each group in order until one has a free inode
// slot.
func (fs *FileSystem) allocInodeAnyGroup() (Ino, error) {
	for i := range fs.groups {
		ino, err := fs.groups[i].AllocInode()
		if err == nil {
			return ino, nil
		}
		if !errors.Is(err, NoSpaceErr) {
			return InoNil, err
		}
	}
	return InoNil, fmt.Errorf("allocating inode: %w", NoSpaceErr)
}
