//go:build !unix

package heap

// allocSegmentMemory on non-unix platforms falls back to a plain
// garbage-collected byte slice. It is not page-aligned via mmap, but
// make() aligns to at least the platform's max-align requirement, which
// is sufficient for the 16-byte header alignment this package relies on.
func allocSegmentMemory(size int) ([]byte, func(), error) {
	data := make([]byte, size)
	return data, nil, nil
}
