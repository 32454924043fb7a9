package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newFakeOllama(t *testing.T, models []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Stream {
			http.Error(w, "stream must be false", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "echo: " + req.Prompt})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := make([][]float32, len(req.Input))
		for i, s := range req.Input {
			out[i] = []float32{float32(len(s)), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": out})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		list := make([]map[string]string, len(models))
		for i, m := range models {
			list[i] = map[string]string{"name": m}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"models": list})
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Stream *bool  `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Stream == nil || *req.Stream {
			http.Error(w, "stream must be false", http.StatusBadRequest)
			return
		}
		if req.Model == "missing" {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "pull model manifest: file does not exist"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaGenerate(t *testing.T) {
	srv := newFakeOllama(t, nil)
	c := NewOllamaClient(srv.URL+"/", "llama3.1:8b")

	out, err := c.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "echo: hi" {
		t.Fatalf("unexpected response %q", out)
	}
}

func TestOllamaEmbedBatchKeepsOrder(t *testing.T) {
	srv := newFakeOllama(t, nil)
	c := NewOllamaClient(srv.URL, "all-minilm")

	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "abc", "ab"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	want := []float32{1, 3, 2}
	for i, v := range vecs {
		if v[0] != want[i] {
			t.Fatalf("vector %d: want first component %v got %v", i, want[i], v[0])
		}
	}
}

func TestOllamaReady(t *testing.T) {
	srv := newFakeOllama(t, []string{"llama3.1:8b", "all-minilm:latest"})

	if err := NewOllamaClient(srv.URL, "llama3.1:8b").Ready(context.Background()); err != nil {
		t.Fatalf("llama should be ready: %v", err)
	}
	if err := NewOllamaClient(srv.URL, "all-minilm").Ready(context.Background()); err != nil {
		t.Fatalf("untagged name should match :latest: %v", err)
	}
	err := NewOllamaClient(srv.URL, "mistral").Ready(context.Background())
	if !errors.Is(err, ErrModelNotAvailable) {
		t.Fatalf("want ErrModelNotAvailable, got %v", err)
	}
}

func TestOllamaReadyDaemonDown(t *testing.T) {
	srv := newFakeOllama(t, nil)
	url := srv.URL
	srv.Close()

	if err := NewOllamaClient(url, "llama3.1:8b").Ready(context.Background()); err == nil {
		t.Fatal("expected error when daemon is down")
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaClient(srv.URL, "x").Generate(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error on 404")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("daemon error message should be kept, got %v", err)
	}
}

func TestOllamaPull(t *testing.T) {
	srv := newFakeOllama(t, nil)

	if err := NewOllamaClient(srv.URL, "llama3.1:8b").Pull(context.Background()); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if err := NewOllamaClient(srv.URL, "missing").Pull(context.Background()); err == nil {
		t.Fatal("expected pull error to surface")
	}
}

func TestOllamaEmbedBatchEmpty(t *testing.T) {
	vecs, err := NewOllamaClient("http://127.0.0.1:1", "all-minilm").EmbedBatch(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("empty input must not call the daemon, got %v %v", vecs, err)
	}
}
