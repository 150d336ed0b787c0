// Package render — Embeddings renderer.
// Chunks the Markdown document by section and calls an Ollama-compatible
// embedding API for each chunk. Output is a human-readable .embeddings.txt file.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/chunk"
)

const (
	// DefaultOllamaURL is the embeddings endpoint of a local Ollama server.
	DefaultOllamaURL = "http://localhost:11434/api/embeddings"
	embeddingTimeout = 60 * time.Second
)

// ErrNothingToEmbed is returned when the document produces no chunks.
var ErrNothingToEmbed = errors.New("no content to embed")

// OllamaEmbedder implements core.Embedder against the Ollama embeddings API.
type OllamaEmbedder struct {
	url    string
	client *http.Client
}

// NewOllamaEmbedder creates an embedder posting to url.
// Defaults to DefaultOllamaURL if url is empty.
func NewOllamaEmbedder(url string) *OllamaEmbedder {
	if url == "" {
		url = DefaultOllamaURL
	}
	return &OllamaEmbedder{
		url:    url,
		client: &http.Client{Timeout: embeddingTimeout},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string, model string) ([]float64, error) {
	bodyBytes, err := json.Marshal(ollamaRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding Ollama response: %w", err)
	}
	return out.Embedding, nil
}

// EmbeddingsRenderer embeds the chunks of a record's Markdown document.
type EmbeddingsRenderer struct {
	Model     string
	ChunkSize int

	md       *MarkdownRenderer
	embedder core.Embedder
}

// NewEmbeddingsRenderer creates an EmbeddingsRenderer.
func NewEmbeddingsRenderer(md *MarkdownRenderer, embedder core.Embedder, model string, chunkSize int) *EmbeddingsRenderer {
	return &EmbeddingsRenderer{
		Model:     model,
		ChunkSize: chunkSize,
		md:        md,
		embedder:  embedder,
	}
}

// Render chunks the document, embeds each chunk, and produces the
// .embeddings.txt output.
func (r *EmbeddingsRenderer) Render(ctx context.Context, rec *core.WorkItemRecord) ([]byte, error) {
	chunker := chunk.New(r.ChunkSize)
	chunks := chunker.Chunk(r.md.Document(rec))
	if len(chunks) == 0 {
		return nil, ErrNothingToEmbed
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "# work_item: %d\n", rec.ID)
	fmt.Fprintf(&buf, "# model: %s\n", r.Model)
	fmt.Fprintf(&buf, "# chunk_size: %d\n\n", chunker.Size)

	for i, text := range chunks {
		vec, err := r.embedder.Embed(ctx, text, r.Model)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i+1, err)
		}

		fmt.Fprintf(&buf, "--- chunk %d ---\n", i+1)
		fmt.Fprintf(&buf, "TEXT:\n%s\n\n", text)

		vecStrs := make([]string, len(vec))
		for j, v := range vec {
			vecStrs[j] = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(&buf, "VECTOR:\n[%s]\n\n", strings.Join(vecStrs, ", "))
	}

	return []byte(buf.String()), nil
}

// Extension returns the file extension for embeddings output.
func (r *EmbeddingsRenderer) Extension() string {
	return ".embeddings.txt"
}
