package remotesync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"transfer-tracking-service/internal/adapters/spreadsheet"
	"transfer-tracking-service/internal/domain"
)

// fakeContentsAPI keeps one file and records the PUT bodies it receives.
type fakeContentsAPI struct {
	mu      sync.Mutex
	sha     string
	puts    []putContentRequest
	auth    []string
	failPut bool
}

func (f *fakeContentsAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.auth = append(f.auth, r.Header.Get("Authorization"))
		if r.URL.Path != "/repos/acme/logistics/contents/data/Controle Transferencia.xlsx" {
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("ref") != "main" {
				t.Errorf("ref = %q, want main", r.URL.Query().Get("ref"))
			}
			if f.sha == "" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message":"Not Found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(contentResponse{SHA: f.sha})
		case http.MethodPut:
			if f.failPut {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"message":"sha mismatch"}`))
				return
			}
			var body putContentRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode put body: %v", err)
			}
			f.puts = append(f.puts, body)
			f.sha = "sha-" + string(rune('0'+len(f.puts)))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestSync(t *testing.T, api *fakeContentsAPI) *GitHubSync {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	g, err := NewGitHubSync(GitHubConfig{
		Repo:    "acme/logistics",
		Branch:  "main",
		Path:    "data/Controle Transferencia.xlsx",
		Token:   "tok",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewGitHubSync() error: %v", err)
	}
	return g
}

func TestGitHubSyncCreatesThenUpdates(t *testing.T) {
	api := &fakeContentsAPI{}
	g := newTestSync(t, api)
	ctx := context.Background()

	rec := domain.NewRecord("2024-03-01", "ABC1D23", "Ana")
	rec.ID = "a"

	if err := g.Push(ctx, []domain.Record{rec}, "first"); err != nil {
		t.Fatalf("first Push() error: %v", err)
	}
	if err := g.Push(ctx, []domain.Record{rec, rec}, "second"); err != nil {
		t.Fatalf("second Push() error: %v", err)
	}

	if len(api.puts) != 2 {
		t.Fatalf("puts = %d, want 2", len(api.puts))
	}
	if api.puts[0].SHA != "" {
		t.Errorf("create sent sha %q, want none", api.puts[0].SHA)
	}
	if api.puts[1].SHA != "sha-1" {
		t.Errorf("update sha = %q, want sha-1", api.puts[1].SHA)
	}
	if api.puts[1].Branch != "main" || api.puts[1].Message != "second" {
		t.Errorf("update body = %+v", api.puts[1])
	}
	for _, a := range api.auth {
		if a != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", a)
		}
	}

	raw, err := base64.StdEncoding.DecodeString(api.puts[1].Content)
	if err != nil {
		t.Fatalf("decode content: %v", err)
	}
	records, err := spreadsheet.Decode(bytes.NewReader(raw), "")
	if err != nil {
		t.Fatalf("pushed content is not a workbook: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("pushed records = %d, want 2", len(records))
	}
}

func TestGitHubSyncReportsFailure(t *testing.T) {
	api := &fakeContentsAPI{failPut: true}
	g := newTestSync(t, api)

	err := g.Push(context.Background(), nil, "msg")
	if err == nil {
		t.Fatal("expected error when the API rejects the write")
	}
	if len(api.auth) != 2 {
		t.Errorf("requests = %d, want 2 (no retry)", len(api.auth))
	}
}

func TestNewGitHubSyncValidatesConfig(t *testing.T) {
	tests := []GitHubConfig{
		{Repo: "no-slash", Token: "t", Path: "a.xlsx"},
		{Repo: "a/b", Token: "", Path: "a.xlsx"},
		{Repo: "a/b", Token: "t", Path: ""},
	}
	for _, cfg := range tests {
		if _, err := NewGitHubSync(cfg); err == nil {
			t.Errorf("NewGitHubSync(%+v) should fail", cfg)
		}
	}
}
