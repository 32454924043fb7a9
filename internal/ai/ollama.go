package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

var ErrModelNotAvailable = errors.New("model not available")

// OllamaClient talks to a local Ollama daemon. One client serves one model.
type OllamaClient struct {
	api   *api.Client
	model string
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Host == "" {
		// the daemon's default address
		base = &url.URL{Scheme: "http", Host: "127.0.0.1:11434"}
	}
	return &OllamaClient{
		// no overall timeout: a slow generation holds the caller until ctx ends
		api:   api.NewClient(base, &http.Client{}),
		model: model,
	}
}

func (c *OllamaClient) Provider() string { return "ollama" }

func (c *OllamaClient) Model() string { return c.model }

// Generate runs a single non-streaming completion for prompt.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var out strings.Builder
	err := c.api.Generate(ctx, &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	return out.String(), nil
}

// EmbedBatch embeds texts in one /api/embed call; the result is index-aligned with texts.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed returned %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Ready reports whether the daemon is reachable and has the configured model pulled.
func (c *OllamaClient) Ready(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	list, err := c.api.List(checkCtx)
	if err != nil {
		return fmt.Errorf("ollama is not running: %w", err)
	}
	for _, m := range list.Models {
		if sameModel(m.Name, c.model) || sameModel(m.Model, c.model) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrModelNotAvailable, c.model)
}

// Pull downloads the configured model. It blocks until the pull completes.
func (c *OllamaClient) Pull(ctx context.Context) error {
	stream := false
	err := c.api.Pull(ctx, &api.PullRequest{
		Model:  c.model,
		Stream: &stream,
	}, func(api.ProgressResponse) error { return nil })
	if err != nil {
		return fmt.Errorf("ollama pull failed: %w", err)
	}
	return nil
}

// sameModel treats "all-minilm" and "all-minilm:latest" as the same tag.
func sameModel(listed, wanted string) bool {
	if listed == "" {
		return false
	}
	if listed == wanted {
		return true
	}
	if !strings.Contains(wanted, ":") {
		return listed == wanted+":latest"
	}
	return false
}
