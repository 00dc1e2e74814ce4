package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage/disk"
	"github.com/starford/filedock/internal/storage/local"
	"github.com/starford/filedock/internal/storage/memory"
	"github.com/starford/filedock/internal/storage/remote"
	"github.com/starford/filedock/internal/testutil"
)

func testServer(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()
	srv := newServer(cfg, testutil.ScenarioTree(), testutil.Logger())
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(func() {
		ts.Close()
		srv.close()
	})
	return ts
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_Health(t *testing.T) {
	ts := testServer(t, NewDefaultConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		if resp := get(t, ts.URL+path, ""); resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestHandler_StorageServiceMounted(t *testing.T) {
	ts := testServer(t, NewDefaultConfig())
	resp := get(t, ts.URL+"/api/storage/folders/docs", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Entries []models.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Entries) != 2 || body.Entries[1].Name != "b.txt" {
		t.Errorf("entries = %+v", body.Entries)
	}
}

func TestHandler_AuthCoversAPIAndWebsocket(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "secret"}
	ts := testServer(t, cfg)

	for _, path := range []string{"/api/storage/folders", "/dialog/ws"} {
		if resp := get(t, ts.URL+path, ""); resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d", path, resp.StatusCode)
		}
	}
	if resp := get(t, ts.URL+"/api/storage/files/a.txt", "secret"); resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("with token: status = %d body = %s", resp.StatusCode, body)
	}
	if resp := get(t, ts.URL+"/health/live", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("health should stay open: %d", resp.StatusCode)
	}
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seed, []byte(`{"type":"folder","contents":{"z.txt":{"type":"file","contents":"z"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		cfg  StorageConfig
		want any
	}{
		{"memory empty", StorageConfig{Backend: BackendMemory}, &memory.Backend{}},
		{"memory seeded", StorageConfig{Backend: BackendMemory, Memory: MemoryStorageConfig{Seed: seed}}, &memory.Backend{}},
		{"local", StorageConfig{Backend: BackendLocal, Local: LocalStorageConfig{DSN: filepath.Join(dir, "f.db"), Prefix: local.DefaultPrefix}}, &local.Store{}},
		{"disk", StorageConfig{Backend: BackendDisk, Disk: DiskStorageConfig{Root: filepath.Join(dir, "files")}}, &disk.FS{}},
		{"remote", StorageConfig{Backend: BackendRemote, Remote: RemoteStorageConfig{BaseURL: "http://localhost:1", ClientID: "c"}}, &remote.Backend{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, closer, err := OpenBackend(tc.cfg, testutil.Logger())
			if err != nil {
				t.Fatal(err)
			}
			defer closer.Close()
			if got, want := typeName(b), typeName(tc.want); got != want {
				t.Errorf("backend type = %s, want %s", got, want)
			}
		})
	}
}

func TestOpenBackend_SeededContent(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seed, []byte("type: folder\ncontents:\n  n.txt:\n    type: file\n    contents: hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, _, err := OpenBackend(StorageConfig{Backend: BackendMemory, Memory: MemoryStorageConfig{Seed: seed}}, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	got, err := b.ReadFile(t.Context(), models.Path{"n.txt"})
	if err != nil || got != "hi" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
}

func TestOpenBackend_MissingSeed(t *testing.T) {
	_, _, err := OpenBackend(StorageConfig{Backend: BackendMemory, Memory: MemoryStorageConfig{Seed: "/nonexistent/seed.json"}}, testutil.Logger())
	if err == nil {
		t.Fatal("expected error for missing seed")
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
