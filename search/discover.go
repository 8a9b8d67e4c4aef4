package search

import (
	"io/fs"
	"path/filepath"
)

// FindPackets recursively searches root for files matching pattern, matched
// against each file's basename (e.g. "*.bin" against "sci_20260101_000000.bin").
func FindPackets(root string, pattern string) ([]string, error) {
	items := make([]string, 0)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		match, err := filepath.Match(pattern, filepath.Base(path))
		if err != nil {
			return err
		}
		if match {
			items = append(items, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// FindCaptures is a convenience wrapper over FindPackets for the default
// capture file extension used by the MAG science pipeline.
func FindCaptures(root string) ([]string, error) {
	return FindPackets(root, "*.bin")
}
