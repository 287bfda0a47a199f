package fs

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// FileInfo is one directory listing row.
type FileInfo struct {
	Name        string
	UID         uint16
	GID         uint16
	Permissions uint16
	IsDir       bool
}

// ListDir lists the directory named by `path` (the empty or root path lists
// the root directory). Requires read permission on the directory.
func (fs *FileSystem) ListDir(path string) ([]FileInfo, error) {
	ino, err := fs.resolveTarget(path, DirNotFoundErr)
	if err != nil {
		return nil, fmt.Errorf("listing dir `%s`: %w", path, err)
	}

	var dir Inode
	if err := fs.getInode(ino, &dir); err != nil {
		return nil, fmt.Errorf("listing dir `%s`: %w", path, err)
	}
	if dir.FileType != FileTypeDir {
		return nil, fmt.Errorf("listing dir `%s`: %w", path, NotADirErr)
	}
	if !fs.check(&dir, PermRead) {
		return nil, fmt.Errorf(
			"listing dir `%s`: %w",
			path,
			PermissionDeniedErr,
		)
	}

	infos := []FileInfo{}
	for i := Block(0); i < DirectBlocksCount; i++ {
		b := dir.DirectBlocks[i]
		if b == BlockNil {
			continue
		}
		p, err := fs.dev.BlockPtr(b)
		if err != nil {
			return nil, fmt.Errorf("listing dir `%s`: %w", path, err)
		}
		for slot := 0; slot < DirEntriesPerBlock; slot++ {
			var entry DirEntry
			start := Byte(slot) * DirEntrySize
			encode.DecodeDirEntry(
				&entry,
				(*[DirEntrySize]byte)(p[start:start+DirEntrySize]),
			)
			if entry.Ino == InoNil {
				continue
			}
			var inode Inode
			if err := fs.getInode(entry.Ino, &inode); err != nil {
				return nil, fmt.Errorf("listing dir `%s`: %w", path, err)
			}
			infos = append(infos, FileInfo{
				Name:        entry.Name,
				UID:         inode.UID,
				GID:         inode.GID,
				Permissions: inode.Permissions,
				IsDir:       inode.FileType == FileTypeDir,
			})
		}
	}
	return infos, nil
}
