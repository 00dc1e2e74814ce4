// Package storagetest checks that a storage.Backend honours the shared
// contract. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// Contents exercised by the round-trip check.
var Contents = []string{
	"hello",
	"",
	"line one\nline two\r\nline three\n",
	"unicode: héllo wörld, 世界, emoji 🚀, rtl שלום",
	"tabs\tand \"quotes\" and \\backslashes\\ and \x01 control",
}

// Options describe which contract clauses apply to the backend.
type Options struct {
	// Hierarchical backends support folders; flat ones reject nested paths.
	Hierarchical bool
}

// Run executes the contract checks against fresh backends from newBackend.
// Each backend passed to a check is already accessed.
func Run(t *testing.T, newBackend func(t *testing.T) storage.Backend, opts Options) {
	t.Helper()
	ctx := context.Background()

	fresh := func(t *testing.T) storage.Backend {
		t.Helper()
		b := newBackend(t)
		if err := b.GetAccess(ctx); err != nil {
			t.Fatalf("GetAccess: %v", err)
		}
		return b
	}

	t.Run("GetAccessIdempotent", func(t *testing.T) {
		b := fresh(t)
		if err := b.GetAccess(ctx); err != nil {
			t.Fatalf("second GetAccess: %v", err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		b := fresh(t)
		p := models.Path{"roundtrip.txt"}
		for _, c := range Contents {
			if err := b.WriteFile(ctx, p, c); err != nil {
				t.Fatalf("WriteFile(%q): %v", c, err)
			}
			got, err := b.ReadFile(ctx, p)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if got != c {
				t.Errorf("round trip = %q, want %q", got, c)
			}
		}
	})

	t.Run("OverwriteIsSilent", func(t *testing.T) {
		b := fresh(t)
		p := models.Path{"notes"}
		if err := b.WriteFile(ctx, p, "x"); err != nil {
			t.Fatalf("first write: %v", err)
		}
		if err := b.WriteFile(ctx, p, "y"); err != nil {
			t.Fatalf("second write: %v", err)
		}
		got, err := b.ReadFile(ctx, p)
		if err != nil || got != "y" {
			t.Fatalf("ReadFile = %q, %v; want \"y\"", got, err)
		}
	})

	t.Run("ReadMissingFile", func(t *testing.T) {
		b := fresh(t)
		if _, err := b.ReadFile(ctx, models.Path{"missing.txt"}); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("RootListsWrittenFiles", func(t *testing.T) {
		b := fresh(t)
		for _, name := range []string{"one.txt", "two.txt"} {
			if err := b.WriteFile(ctx, models.Path{name}, name); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
		}
		entries, err := b.ReadFolder(ctx, nil)
		if err != nil {
			t.Fatalf("ReadFolder: %v", err)
		}
		seen := map[string]models.EntryType{}
		for _, e := range entries {
			seen[e.Name] = e.Type
		}
		for _, name := range []string{"one.txt", "two.txt"} {
			if seen[name] != models.EntryFile {
				t.Errorf("listing missing file %q: %+v", name, entries)
			}
		}
		if _, ok := seen[".."]; ok {
			t.Errorf("root listing must not contain ..: %+v", entries)
		}
	})

	t.Run("RejectsMalformedPath", func(t *testing.T) {
		b := fresh(t)
		bad := models.Path{"a", "..", "b"}
		if err := b.WriteFile(ctx, bad, "x"); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("WriteFile err = %v, want ErrInvalidPath", err)
		}
		if _, err := b.ReadFile(ctx, nil); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("ReadFile(root) err = %v, want ErrInvalidPath", err)
		}
	})

	if opts.Hierarchical {
		t.Run("MissingParent", func(t *testing.T) {
			b := fresh(t)
			p := models.Path{"no-such-folder", "x.txt"}
			if err := b.WriteFile(ctx, p, "x"); !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
			if _, err := b.ReadFolder(ctx, models.Path{"no-such-folder"}); !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("ReadFolder err = %v, want ErrNotFound", err)
			}
		})

		t.Run("FileIsNotAFolder", func(t *testing.T) {
			b := fresh(t)
			if err := b.WriteFile(ctx, models.Path{"f.txt"}, "x"); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := b.ReadFolder(ctx, models.Path{"f.txt"}); !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	} else {
		t.Run("FlatRejectsNesting", func(t *testing.T) {
			b := fresh(t)
			if _, err := b.ReadFolder(ctx, models.Path{"sub"}); !errors.Is(err, apperr.ErrInvalidPath) {
				t.Errorf("ReadFolder err = %v, want ErrInvalidPath", err)
			}
			if err := b.WriteFile(ctx, models.Path{"sub", "x"}, "x"); !errors.Is(err, apperr.ErrInvalidPath) {
				t.Errorf("WriteFile err = %v, want ErrInvalidPath", err)
			}
		})
	}
}
