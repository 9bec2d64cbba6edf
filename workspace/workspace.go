// Package workspace provides isolated scratch storage for one
// acquisition request or batch, with cleanup guaranteed to run
// exactly once on every exit path.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/thanhpk/randstr"
	"github.com/vibedl/vibedl/util"
)

// Workspace is a uniquely named scratch directory. It owns every
// intermediate file written during acquisition and is never shared
// across unrelated requests.
type Workspace struct {
	dir  string
	once sync.Once
}

// New creates a scratch directory under root (os.TempDir when
// blank). Failure here is fatal for the enclosing request: nothing
// can proceed without scratch storage.
func New(root, prefix string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if prefix == "" {
		prefix = "vibedl"
	}
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", prefix, randstr.Hex(8)))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

func (workspace *Workspace) Dir() string {
	return workspace.dir
}

// File returns the workspace-scoped path for a scratch file,
// with the name made filesystem-legal first.
func (workspace *Workspace) File(name string) string {
	return filepath.Join(workspace.dir, util.LegalizeFilename(name, 150))
}

// Close deletes the scratch directory and everything in it.
// Safe to call more than once; only the first call removes.
func (workspace *Workspace) Close() error {
	var err error
	workspace.once.Do(func() {
		err = os.RemoveAll(workspace.dir)
	})
	return err
}
