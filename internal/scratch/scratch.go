// Package scratch manages the scoped temporary storage used for in-flight
// uploads. Every saved file gets a unique per-request name so concurrent
// uploads with identical client filenames cannot race on the same path.
package scratch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Dir struct {
	path string
}

// New ensures the scratch directory exists and returns a handle to it.
func New(path string) (*Dir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("scratch dir path is empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string { return d.path }

// Save writes r to a new file under the scratch dir. The stored name is a
// uuid prefix plus the sanitized client filename, so the client name stays
// visible for debugging without being trusted as a path. The returned cleanup
// removes the file and is safe to call more than once.
func (d *Dir) Save(filename string, r io.Reader) (string, func(), error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	path := filepath.Join(d.path, uuid.NewString()+"_"+base)

	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("close scratch file: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "scratch: failed to remove %s: %v\n", path, err)
		}
	}
	return path, cleanup, nil
}

// Sweep removes scratch files older than ttl and returns how many were
// removed. Per-request cleanup is the primary mechanism; the sweep only
// catches files orphaned by a crash between save and cleanup.
func (d *Dir) Sweep(ttl time.Duration) int {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0
	}

	removed := 0
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= ttl {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, entry.Name())); err == nil {
			removed++
		}
	}
	return removed
}
