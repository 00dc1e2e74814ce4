package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
	"github.com/starford/filedock/internal/storage/storagetest"
)

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return New(nil)
	}, storagetest.Options{Hierarchical: true})
}

func sampleTree() *Node {
	return NewFolder().
		Add("a.txt", NewFile("hello")).
		Add("docs", NewFolder().Add("b.txt", NewFile("world")))
}

func names(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestListingOrderAndParentEntry(t *testing.T) {
	ctx := context.Background()
	b := New(sampleTree())

	root, err := b.ReadFolder(ctx, nil)
	if err != nil {
		t.Fatalf("ReadFolder(root): %v", err)
	}
	if got := names(root); len(got) != 2 || got[0] != "a.txt" || got[1] != "docs" {
		t.Fatalf("root = %v", got)
	}
	if root[1].Type != models.EntryFolder {
		t.Errorf("docs type = %s", root[1].Type)
	}

	docs, err := b.ReadFolder(ctx, models.Path{"docs"})
	if err != nil {
		t.Fatalf("ReadFolder(docs): %v", err)
	}
	if got := names(docs); len(got) != 2 || got[0] != ".." || got[1] != "b.txt" {
		t.Fatalf("docs = %v", got)
	}
}

func TestWriteIntoSubfolder(t *testing.T) {
	ctx := context.Background()
	b := New(sampleTree())
	p := models.Path{"docs", "c.txt"}
	if err := b.WriteFile(ctx, p, "new"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := b.ReadFile(ctx, p)
	if err != nil || got != "new" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}
	docs, _ := b.ReadFolder(ctx, models.Path{"docs"})
	if got := names(docs); got[len(got)-1] != "c.txt" {
		t.Errorf("new file not appended: %v", got)
	}
}

func TestWriteOverFolderFails(t *testing.T) {
	b := New(sampleTree())
	err := b.WriteFile(context.Background(), models.Path{"docs"}, "x")
	if !errors.Is(err, apperr.ErrWriteFailed) {
		t.Fatalf("err = %v, want ErrWriteFailed", err)
	}
}

func TestWalkThroughFile(t *testing.T) {
	b := New(sampleTree())
	_, err := b.ReadFile(context.Background(), models.Path{"a.txt", "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadPreservesDocumentOrder(t *testing.T) {
	data := []byte(`{
  "type": "folder",
  "contents": {
    "zeta.txt": {"type": "file", "contents": "last letter\nfirst row", "author": "ann"},
    "My Pictures": {
      "type": "folder",
      "contents": {
        "README.md": {"type": "file", "contents": "No photos yet.\n\n# SO SAD"}
      }
    },
    "alpha.txt": {"type": "file"}
  }
}`)
	b, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctx := context.Background()
	root, err := b.ReadFolder(ctx, nil)
	if err != nil {
		t.Fatalf("ReadFolder: %v", err)
	}
	if got := names(root); len(got) != 3 || got[0] != "zeta.txt" || got[1] != "My Pictures" || got[2] != "alpha.txt" {
		t.Fatalf("order = %v", got)
	}
	if root[0].Meta["author"] != "ann" {
		t.Errorf("meta = %+v", root[0].Meta)
	}
	readme, err := b.ReadFile(ctx, models.Path{"My Pictures", "README.md"})
	if err != nil || readme != "No photos yet.\n\n# SO SAD" {
		t.Fatalf("README = %q, %v", readme, err)
	}
	z, _ := b.ReadFile(ctx, models.Path{"zeta.txt"})
	if z != "last letter\nfirst row" {
		t.Errorf("zeta = %q", z)
	}
}

func TestLoadYAML(t *testing.T) {
	b, err := Load([]byte(`
type: folder
contents:
  notes.md:
    type: file
    contents: |
      # Notes
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := b.ReadFile(context.Background(), models.Path{"notes.md"})
	if err != nil || got != "# Notes\n" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}
}

func TestLoadRejectsBadTrees(t *testing.T) {
	cases := []string{
		`{"type": "file", "contents": "root cannot be a file"}`,
		`{"type": "folder", "contents": {"x": {"type": "pipe"}}}`,
		`{"type": "folder", "contents": {"x": {"type": "file", "contents": {"nested": 1}}}}`,
		`{"type": "folder", "contents": {"a/b": {"type": "file"}}}`,
		`{"type": "folder", "contents": ["not", "a", "mapping"]}`,
	}
	for _, c := range cases {
		if _, err := Load([]byte(c)); err == nil {
			t.Errorf("Load(%s) succeeded", c)
		}
	}
}
