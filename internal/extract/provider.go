package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/admitkit/docverify/internal/config"
	"github.com/admitkit/docverify/pkg/genai"
)

// Prompt is one model call: instruction text plus the document under review.
type Prompt struct {
	Text string
	// Document bytes are sent inline next to the text when present.
	Document []byte
	MIME     string
	// JSONResponse asks the backend for a bare JSON object.
	JSONResponse bool
}

// Provider abstracts the model backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	Generate(ctx context.Context, model string, p Prompt) (string, error)
	Close() error
}

// GenAIProvider sends prompts to the hosted API through pkg/genai.
type GenAIProvider struct {
	client *genai.Client
}

func NewGenAIProvider(client *genai.Client) *GenAIProvider {
	return &GenAIProvider{client: client}
}

func (p *GenAIProvider) Generate(ctx context.Context, model string, pr Prompt) (string, error) {
	req := genai.Request{JSONResponse: pr.JSONResponse}
	if pr.Document != nil {
		req.Parts = append(req.Parts, genai.Part{Data: pr.Document, MIME: pr.MIME})
	}
	req.Parts = append(req.Parts, genai.Part{Text: pr.Text})

	res, err := p.client.Generate(ctx, model, req)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (p *GenAIProvider) Close() error { return p.client.Close() }

// OllamaProvider is the local fallback backend. It speaks to a running Ollama
// instance and passes the document as an inline image attachment.
type OllamaProvider struct {
	client *ollamaapi.Client
}

func NewOllamaProvider(cfg config.OllamaConfig) (*OllamaProvider, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &OllamaProvider{client: ollamaapi.NewClient(u, httpClient)}, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, model string, pr Prompt) (string, error) {
	stream := false
	req := &ollamaapi.GenerateRequest{
		Model:  model,
		Prompt: pr.Text,
		Stream: &stream,
	}
	if pr.JSONResponse {
		req.Format = json.RawMessage(`"json"`)
	}
	if pr.Document != nil {
		req.Images = []ollamaapi.ImageData{pr.Document}
	}

	var sb strings.Builder
	err := p.client.Generate(ctx, req, func(resp ollamaapi.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return sb.String(), nil
}

func (p *OllamaProvider) Close() error { return nil }
