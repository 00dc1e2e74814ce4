// Package memory provides a hierarchical in-memory storage backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// Node is a file or folder in the tree. Folder children keep insertion
// order, which is the order listings report.
type Node struct {
	Type     models.EntryType
	Contents string
	Meta     map[string]any

	children map[string]*Node
	order    []string
}

// NewFolder returns an empty folder node.
func NewFolder() *Node {
	return &Node{Type: models.EntryFolder, children: map[string]*Node{}}
}

// NewFile returns a file node holding contents.
func NewFile(contents string) *Node {
	return &Node{Type: models.EntryFile, Contents: contents}
}

// Add places child under name, keeping the original position when name is
// already taken. It returns n so trees can be built inline.
func (n *Node) Add(name string, child *Node) *Node {
	if n.children == nil {
		n.children = map[string]*Node{}
	}
	if _, ok := n.children[name]; !ok {
		n.order = append(n.order, name)
	}
	n.children[name] = child
	return n
}

// Child returns the named child, if any.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.children[name]
	return c, ok
}

// Backend implements storage.Backend over a Node tree.
type Backend struct {
	mu   sync.RWMutex
	root *Node
}

var _ storage.Backend = (*Backend)(nil)

// New creates a backend rooted at root. A nil root starts empty.
func New(root *Node) *Backend {
	if root == nil {
		root = NewFolder()
	}
	return &Backend{root: root}
}

// Describe names the backend for logs.
func (b *Backend) Describe() string { return "memory" }

// GetAccess always succeeds: an in-memory tree needs no login.
func (b *Backend) GetAccess(context.Context) error { return nil }

// find walks path from the root and checks the final node's type.
// Callers hold b.mu.
func (b *Backend) find(path models.Path, typ models.EntryType) (*Node, error) {
	walk := b.root
	for i, seg := range path {
		if walk.Type != models.EntryFolder {
			return nil, fmt.Errorf("memory: %w: %s is not a folder", apperr.ErrNotFound, path[:i])
		}
		next, ok := walk.children[seg]
		if !ok {
			return nil, fmt.Errorf("memory: %w: %s", apperr.ErrNotFound, path[:i+1])
		}
		walk = next
	}
	if walk.Type != typ {
		return nil, fmt.Errorf("memory: %w: %s is not a %s", apperr.ErrNotFound, path, typ)
	}
	return walk, nil
}

// ReadFolder lists the folder at path, with ".." first below the root.
func (b *Backend) ReadFolder(_ context.Context, path models.Path) ([]models.Entry, error) {
	if err := storage.CheckPath("memory", path); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	folder, err := b.find(path, models.EntryFolder)
	if err != nil {
		return nil, err
	}
	entries := make([]models.Entry, 0, len(folder.order))
	for _, name := range folder.order {
		child := folder.children[name]
		entries = append(entries, models.Entry{Name: name, Type: child.Type, Meta: child.Meta})
	}
	return storage.WithParentEntry(path, entries), nil
}

// ReadFile returns the contents of the file at path.
func (b *Backend) ReadFile(_ context.Context, path models.Path) (string, error) {
	if err := storage.CheckFilePath("memory", path); err != nil {
		return "", err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	file, err := b.find(path, models.EntryFile)
	if err != nil {
		return "", err
	}
	return file.Contents, nil
}

// WriteFile overwrites an existing file or creates one in an existing folder.
func (b *Backend) WriteFile(_ context.Context, path models.Path, content string) error {
	if err := storage.CheckFilePath("memory", path); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, name := path.Parent()
	parent, err := b.find(dir, models.EntryFolder)
	if err != nil {
		return err
	}
	if existing, ok := parent.children[name]; ok {
		if existing.Type != models.EntryFile {
			return fmt.Errorf("memory: %w: %s is a folder", apperr.ErrWriteFailed, path)
		}
		existing.Contents = content
		return nil
	}
	parent.Add(name, NewFile(content))
	return nil
}
