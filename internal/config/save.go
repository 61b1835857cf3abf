package config

import (
	"os"
	"path/filepath"
)

// SaveAtomic writes v as indented JSON through a .tmp file, keeping the
// previous content as .bak.
func SaveAtomic(path string, v any) error {
	b, err := encode(v)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
