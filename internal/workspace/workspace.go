// Package workspace provides per-workspace directory provisioning. Every
// store is constructed against a workspace whose standard layout is
// guaranteed to exist first.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// subdirs is the standard workspace layout.
var subdirs = []string{"state", "logs", "outputs", "collab"}

// Workspace describes one provisioned workspace.
type Workspace struct {
	ID   string
	Name string
	Path string
}

// StatePath returns the path of a file under the workspace state directory.
func (w *Workspace) StatePath(name string) string {
	return filepath.Join(w.Path, "state", name)
}

// LogsPath returns the path of a file under the workspace logs directory.
func (w *Workspace) LogsPath(name string) string {
	return filepath.Join(w.Path, "logs", name)
}

// Manager is a local registry of workspaces under a single root.
type Manager struct {
	mu         sync.Mutex
	root       string
	workspaces map[string]*Workspace
}

// NewManager creates a manager rooted at root. The root itself is created
// lazily on first registration.
func NewManager(root string) *Manager {
	return &Manager{
		root:       root,
		workspaces: make(map[string]*Workspace),
	}
}

// Register provisions a workspace, creating its directory structure.
// Registering an existing workspace is a no-op that returns it.
func (m *Manager) Register(id, name string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ws, ok := m.workspaces[id]; ok {
		return ws, nil
	}

	if name == "" {
		name = id
	}
	ws := &Workspace{
		ID:   id,
		Name: name,
		Path: filepath.Join(m.root, "workspaces", id),
	}
	if err := ensureStructure(ws.Path); err != nil {
		return nil, fmt.Errorf("provision workspace %s: %w", id, err)
	}
	m.workspaces[id] = ws
	return ws, nil
}

// Get returns an existing workspace, registering it on demand.
func (m *Manager) Get(id string) (*Workspace, error) {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	m.mu.Unlock()
	if ok {
		return ws, nil
	}
	return m.Register(id, "")
}

// List returns the registered workspace IDs in sorted order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.workspaces))
	for id := range m.workspaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func ensureStructure(root string) error {
	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}
