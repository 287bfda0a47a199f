package fs

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

// CheckImage walks the mounted image and reports every invariant violation
// it finds: bitmap bits that disagree with reachability, data blocks owned
// by more than one inode, and directory entries referencing unallocated
// inodes. It never mutates the image.
func (fs *FileSystem) CheckImage() ([]string, error) {
	if len(fs.groups) == 0 {
		return nil, fmt.Errorf("checking image: %w", NotMountedErr)
	}

	var violations []string

	liveInodes := map[Ino]bool{InoNil: true}
	liveBlocks := map[Block]bool{}

	// metadata regions are permanently owned
	for g := uint64(0); g < fs.super.GroupCount(); g++ {
		base := Block(g) * fs.super.BlocksPerGroup
		reserved := fs.super.FirstDataBlock()
		if limit := fs.super.GroupBlocks(g); reserved > limit {
			reserved = limit
		}
		for rel := Block(0); rel < reserved; rel++ {
			liveBlocks[base+rel] = true
		}
	}

	claimBlocks := func(inode *Inode) {
		for i := Block(0); i < DirectBlocksCount; i++ {
			b := inode.DirectBlocks[i]
			if b == BlockNil {
				continue
			}
			if liveBlocks[b] {
				violations = append(violations, fmt.Sprintf(
					"block %d referenced more than once (via inode %d)",
					b,
					inode.Ino,
				))
				continue
			}
			liveBlocks[b] = true
		}
	}

	var root Inode
	if err := fs.getInode(fs.super.HomeDirInode, &root); err != nil {
		return nil, fmt.Errorf("checking image: %w", err)
	}
	if root.FileType != FileTypeDir {
		violations = append(violations, fmt.Sprintf(
			"root inode %d is not a directory",
			fs.super.HomeDirInode,
		))
		return violations, nil
	}

	stack := []Ino{fs.super.HomeDirInode}
	for len(stack) > 0 {
		ino := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if liveInodes[ino] {
			violations = append(violations, fmt.Sprintf(
				"directory inode %d reachable more than once",
				ino,
			))
			continue
		}
		liveInodes[ino] = true

		var dir Inode
		if err := fs.getInode(ino, &dir); err != nil {
			return nil, fmt.Errorf("checking image: %w", err)
		}
		claimBlocks(&dir)

		for i := Block(0); i < DirectBlocksCount; i++ {
			b := dir.DirectBlocks[i]
			if b == BlockNil {
				continue
			}
			children, err := fs.dirBlockEntries(b)
			if err != nil {
				return nil, fmt.Errorf("checking image: %w", err)
			}
			for _, child := range children {
				g, err := fs.groupOfIno(child)
				if err != nil {
					violations = append(violations, fmt.Sprintf(
						"dir %d references out-of-range inode %d",
						ino,
						child,
					))
					continue
				}
				allocated, err := g.InodeAllocated(child)
				if err != nil {
					return nil, fmt.Errorf("checking image: %w", err)
				}
				if !allocated {
					violations = append(violations, fmt.Sprintf(
						"dir %d references unallocated inode %d",
						ino,
						child,
					))
					continue
				}

				var inode Inode
				if err := fs.getInode(child, &inode); err != nil {
					return nil, fmt.Errorf("checking image: %w", err)
				}
				if inode.FileType == FileTypeDir {
					stack = append(stack, child)
					continue
				}
				if liveInodes[child] {
					violations = append(violations, fmt.Sprintf(
						"inode %d reachable more than once",
						child,
					))
					continue
				}
				liveInodes[child] = true
				claimBlocks(&inode)
			}
		}
	}

	// every bitmap bit must agree with reachability
	for g := uint64(0); g < fs.super.GroupCount(); g++ {
		mgr := &fs.groups[g]

		inoBase := Ino(g) * fs.super.InodesPerGroup
		for i := Ino(0); i < fs.super.InodesPerGroup; i++ {
			ino := inoBase + i
			allocated, err := mgr.InodeAllocated(ino)
			if err != nil {
				return nil, fmt.Errorf("checking image: %w", err)
			}
			if allocated != liveInodes[ino] {
				violations = append(violations, fmt.Sprintf(
					"inode bitmap bit for %d is %v but inode is live=%v",
					ino,
					allocated,
					liveInodes[ino],
				))
			}
		}

		blockBase := Block(g) * fs.super.BlocksPerGroup
		for i := Block(0); i < fs.super.GroupBlocks(g); i++ {
			b := blockBase + i
			allocated, err := mgr.BlockAllocated(b)
			if err != nil {
				return nil, fmt.Errorf("checking image: %w", err)
			}
			if allocated != liveBlocks[b] {
				violations = append(violations, fmt.Sprintf(
					"block bitmap bit for %d is %v but block is live=%v",
					b,
					allocated,
					liveBlocks[b],
				))
			}
		}
	}

	return violations, nil
}
