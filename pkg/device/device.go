// Package device implements the block device backing a filesystem image: a
// fixed-geometry array of 4096-byte blocks over a file-mapped region, so
// mutations through BlockPtr views reach the backing file. The device holds
// an exclusive advisory lock on the image for its whole lifetime.
package device

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	. "github.com/weberc2/blockfs/pkg/types"
)

type Device struct {
	path       string
	file       *os.File
	lock       *flock.Flock
	mapping    []byte
	blockCount Block
}

// New opens (creating if necessary) the image at `path` with the given byte
// capacity. The capacity must be a positive multiple of the block size. A
// smaller existing file is grown; grown regions read as zero.
func New(path string, capacity Byte) (*Device, error) {
	if capacity == 0 || capacity%BlockSize != 0 {
		return nil, fmt.Errorf(
			"opening device `%s` with capacity `%d`: %w",
			path,
			capacity,
			InvalidGeometryErr,
		)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("opening device `%s`: locking: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf(
			"opening device `%s`: %w",
			path,
			ImageLockedErr,
		)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening device `%s`: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = lock.Unlock()
		_ = file.Close()
		return nil, fmt.Errorf("opening device `%s`: %w", path, err)
	}
	if Byte(info.Size()) < capacity {
		if err := unix.Ftruncate(int(file.Fd()), int64(capacity)); err != nil {
			_ = lock.Unlock()
			_ = file.Close()
			return nil, fmt.Errorf(
				"opening device `%s`: growing to `%d` bytes: %w",
				path,
				capacity,
				err,
			)
		}
	}

	mapping, err := unix.Mmap(
		int(file.Fd()),
		0,
		int(capacity),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		_ = lock.Unlock()
		_ = file.Close()
		return nil, fmt.Errorf("opening device `%s`: mapping: %w", path, err)
	}

	return &Device{
		path:       path,
		file:       file,
		lock:       lock,
		mapping:    mapping,
		blockCount: Block(capacity / BlockSize),
	}, nil
}

func (dev *Device) BlockCount() Block { return dev.blockCount }

func (dev *Device) BlockSize() Byte { return BlockSize }

// BlockPtr returns a mutable view of block `b` within the mapped region.
// The view must not be retained across operations that may close the device.
func (dev *Device) BlockPtr(b Block) ([]byte, error) {
	if b >= dev.blockCount {
		return nil, fmt.Errorf(
			"accessing block `%d` of device `%s` (`%d` blocks): %w",
			b,
			dev.path,
			dev.blockCount,
			OutOfRangeErr,
		)
	}
	start := Byte(b) * BlockSize
	return dev.mapping[start : start+BlockSize : start+BlockSize], nil
}

// ReadBlock copies block `b` into `p`, which must hold a full block.
func (dev *Device) ReadBlock(b Block, p []byte) error {
	src, err := dev.BlockPtr(b)
	if err != nil {
		return fmt.Errorf("reading block `%d`: %w", b, err)
	}
	if Byte(len(p)) < BlockSize {
		return fmt.Errorf(
			"reading block `%d` into a `%d`-byte buffer: %w",
			b,
			len(p),
			InvalidGeometryErr,
		)
	}
	copy(p[:BlockSize], src)
	return nil
}

// WriteBlock copies a full block from `p` into block `b`.
func (dev *Device) WriteBlock(b Block, p []byte) error {
	dst, err := dev.BlockPtr(b)
	if err != nil {
		return fmt.Errorf("writing block `%d`: %w", b, err)
	}
	if Byte(len(p)) < BlockSize {
		return fmt.Errorf(
			"writing block `%d` from a `%d`-byte buffer: %w",
			b,
			len(p),
			InvalidGeometryErr,
		)
	}
	copy(dst, p[:BlockSize])
	return nil
}

// Sync flushes the mapped region to the backing file.
func (dev *Device) Sync() error {
	if err := unix.Msync(dev.mapping, unix.MS_SYNC); err != nil {
		return fmt.Errorf("syncing device `%s`: %w", dev.path, err)
	}
	return nil
}

// Close flushes all modifications, unmaps the region, and releases the image
// lock. The device must not be used afterwards.
func (dev *Device) Close() error {
	if dev.mapping == nil {
		return nil
	}
	syncErr := unix.Msync(dev.mapping, unix.MS_SYNC)
	unmapErr := unix.Munmap(dev.mapping)
	dev.mapping = nil
	lockErr := dev.lock.Unlock()
	closeErr := dev.file.Close()
	for _, err := range []error{syncErr, unmapErr, lockErr, closeErr} {
		if err != nil {
			return fmt.Errorf("closing device `%s`: %w", dev.path, err)
		}
	}
	return nil
}
