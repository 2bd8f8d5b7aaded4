//go:build !linux

package chunkstore

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Bounded mounts are linux-only; elsewhere the store runs directly on
// the host filesystem.
func mountVolume(root string, sizeMB uint64) error {
	return errors.New("bounded volume mounts are only supported on linux")
}

func unmountVolume(root string) error {
	return nil
}

func freeSpace(root string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
