package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ingredia/retrieval-core/internal/core/domain"
	"github.com/ingredia/retrieval-core/internal/core/ports"
	"github.com/ingredia/retrieval-core/internal/infrastructure/resilience"
)

// MaxEmbedBatch bounds one provider request; larger inputs are rejected so
// the caller batches explicitly.
const MaxEmbedBatch = 100

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Embedder adapts the client to the core Embedder port. Both methods are
// idempotent and retried on transient failures; permanent failures surface
// immediately.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > MaxEmbedBatch {
		return nil, domain.WrapError(domain.ErrInvalidInput, "embed",
			fmt.Errorf("batch of %d exceeds cap of %d", len(texts), MaxEmbedBatch))
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.executor.Execute(ctx, "embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	}, classifyProviderError)
	if err != nil {
		return nil, wrapProviderError("embed", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed result count mismatch: %d/%d", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Generator is the black-box answer generator consumed by the evaluation
// harness: it drafts text from retrieved context, nothing more.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

var _ ports.AnswerGenerator = (*Generator)(nil)

func (g *Generator) GenerateAnswer(ctx context.Context, question string, matches []domain.Match) (string, error) {
	reqBody := map[string]any{
		"model":  g.client.genModel,
		"prompt": buildAnswerPrompt(question, matches),
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	err := g.client.executor.Execute(ctx, "generate", func(callCtx context.Context) error {
		return g.client.postJSON(callCtx, "/api/generate", reqBody, &response, "generate")
	}, classifyProviderError)
	if err != nil {
		return "", wrapProviderError("generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

func buildAnswerPrompt(question string, matches []domain.Match) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the material records below. ")
	b.WriteString("Answer in the language of the question.\n\nRecords:\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
