package bundletool

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a scratch directory holding the jar, the APK set and the
// size CSV of one Android evaluation.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh directory under base. An empty base uses the
// system temp directory.
func NewWorkspace(base string) (*Workspace, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(base, "appsize-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

func (w *Workspace) JarPath() string  { return filepath.Join(w.Dir, "bundletool.jar") }
func (w *Workspace) APKSPath() string { return filepath.Join(w.Dir, "output.apks") }
func (w *Workspace) CSVPath() string  { return filepath.Join(w.Dir, "output.csv") }

// Close removes the directory and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.Dir)
}
