// Package fs implements the filesystem core over a block device: format and
// mount, path resolution, file and directory lifecycle, and discretionary
// access control. One logical operation runs at a time; there is no internal
// locking and no rollback of partially-applied operations.
package fs

import (
	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/group"
	. "github.com/weberc2/blockfs/pkg/types"
)

// Session is the current user identity for permission checks. The zero
// value is root.
type Session struct {
	UID uint16
	GID uint16
}

type FileSystem struct {
	dev     *device.Device
	super   Superblock
	groups  []group.Manager
	session Session
}

// New attaches a filesystem to `dev`. The result is unusable until Format
// or Mount succeeds.
func New(dev *device.Device) *FileSystem {
	return &FileSystem{dev: dev}
}

// Superblock returns a copy of the mounted superblock.
func (fs *FileSystem) Superblock() Superblock { return fs.super }

// Login switches the session identity used by permission checks.
func (fs *FileSystem) Login(uid, gid uint16) {
	fs.session = Session{UID: uid, GID: gid}
}

// Logout resets the session identity to root.
func (fs *FileSystem) Logout() {
	fs.session = Session{}
}

func (fs *FileSystem) CurrentUser() uint16 { return fs.session.UID }

// check applies the owner/group/other triad selection of the mounted
// session against `access` (some union of PermRead/PermWrite/PermExec).
// uid 0 overrides.
func (fs *FileSystem) check(inode *Inode, access uint16) bool {
	if fs.session.UID == 0 {
		return true
	}
	var bits uint16
	switch {
	case inode.UID == fs.session.UID:
		bits = (inode.Permissions >> 6) & 7
	case inode.GID == fs.session.GID:
		bits = (inode.Permissions >> 3) & 7
	default:
		bits = inode.Permissions & 7
	}
	return bits&access != 0
}
