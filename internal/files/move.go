package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrNoDestination = errors.New("files: destination path is empty")
	ErrSourceMissing = errors.New("files: source folder does not exist")
)

// Mover moves files out of the download folder.
type Mover struct {
	Source string
	// Extensions filters by suffix, case-insensitive; empty moves everything.
	Extensions []string
	Log        *zap.Logger
}

type Moved struct {
	From string
	To   string
}

type Failed struct {
	File string
	Err  error
}

type Result struct {
	Destination string
	Moved       []Moved
	Failed      []Failed
}

func (r Result) OK() bool { return len(r.Failed) == 0 }

// Move moves every matching file from the source folder into dest, creating
// it if needed. Name clashes get a _1, _2, ... suffix before the extension.
func (m Mover) Move(dest string) (Result, error) {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	res := Result{Destination: dest}
	if strings.TrimSpace(dest) == "" {
		return res, ErrNoDestination
	}
	if st, err := os.Stat(m.Source); err != nil || !st.IsDir() {
		return res, fmt.Errorf("%w: %s", ErrSourceMissing, m.Source)
	}

	list, err := m.List()
	if err != nil {
		return res, err
	}
	if len(list) == 0 {
		log.Info("no files to move", zap.String("source", m.Source))
		return res, nil
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return res, fmt.Errorf("files: create %s: %w", dest, err)
	}

	for _, src := range list {
		to := freeName(dest, filepath.Base(src))
		if err := move(src, to); err != nil {
			log.Warn("move failed", zap.String("file", src), zap.Error(err))
			res.Failed = append(res.Failed, Failed{File: src, Err: err})
			continue
		}
		res.Moved = append(res.Moved, Moved{From: src, To: to})
	}
	log.Info("files moved",
		zap.String("destination", dest), zap.Int("moved", len(res.Moved)), zap.Int("failed", len(res.Failed)))
	return res, nil
}

// List returns the regular files in the source folder that pass the filter.
func (m Mover) List() ([]string, error) {
	entries, err := os.ReadDir(m.Source)
	if err != nil {
		return nil, fmt.Errorf("files: list %s: %w", m.Source, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !m.accepts(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(m.Source, e.Name()))
	}
	return out, nil
}

func (m Mover) accepts(name string) bool {
	if len(m.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range m.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func freeName(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return p
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		p = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return p
		}
	}
}

// move renames src, copying across filesystems when a rename is not possible.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	_ = in.Close()
	return os.Remove(src)
}
