package fs

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

// ReadFile returns the file's full contents.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	var inode Inode
	if err := fs.resolveFile(path, &inode); err != nil {
		return nil, fmt.Errorf("reading file `%s`: %w", path, err)
	}
	if !fs.check(&inode, PermRead) {
		return nil, fmt.Errorf(
			"reading file `%s`: %w",
			path,
			PermissionDeniedErr,
		)
	}

	buf := make([]byte, MaxFileSize)
	for i := Block(0); i < DirectBlocksCount; i++ {
		b := inode.DirectBlocks[i]
		if b == BlockNil {
			break
		}
		start := Byte(i) * BlockSize
		if err := fs.dev.ReadBlock(b, buf[start:start+BlockSize]); err != nil {
			return nil, fmt.Errorf("reading file `%s`: %w", path, err)
		}
	}
	return buf[:inode.Size], nil
}
