//go:build linux

package chunkstore

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mountVolume mounts a size-bounded tmpfs at root so the store's free
// space reflects the configured budget rather than the host disk.
func mountVolume(root string, sizeMB uint64) error {
	data := fmt.Sprintf("size=%dm", sizeMB)
	if err := unix.Mount("tmpfs", root, "tmpfs", 0, data); err != nil {
		return fmt.Errorf("mount tmpfs at %s: %w", root, err)
	}
	return nil
}

func unmountVolume(root string) error {
	if err := unix.Unmount(root, 0); err != nil {
		return fmt.Errorf("unmount %s: %w", root, err)
	}
	return nil
}

func freeSpace(root string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", root, err)
	}
	return st.Bavail * uint64(st.Bsize), nil
}
