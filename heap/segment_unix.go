//go:build unix

package heap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocSegmentMemory maps an anonymous, page-aligned region of the given
// size and returns it along with a release function that unmaps it.
//
// This mirrors the teacher's internal/mmfile convention of isolating
// platform-specific memory-mapping behind a narrow per-GOOS file, except
// here the mapping is anonymous (no backing file — this heap has no
// on-disk representation) rather than a file-backed hive.
func allocSegmentMemory(size int) ([]byte, func(), error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("heap: mmap segment: %w", err)
	}
	release := func() {
		_ = unix.Munmap(data)
	}
	return data, release, nil
}
