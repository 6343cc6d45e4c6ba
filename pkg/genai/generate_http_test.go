package genai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/admitkit/docverify/internal/config"
	"github.com/admitkit/docverify/pkg/genai"
)

func writeCandidate(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
}

func TestClient_Generate_Retries_Backoff_Succeeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			a := atomic.AddInt32(&attempts, 1)
			if a == 1 {
				// transient error
				http.Error(w, "temporary", http.StatusInternalServerError)
				return
			}
			writeCandidate(w, "ok")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := config.GenAIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, Retries: 2, Backoff: 10 * time.Millisecond, CircuitFailureThreshold: 10, RequestsPerMinute: 600}
	client, err := genai.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	ctx := context.Background()
	res, err := client.Generate(ctx, "m", genai.Request{Parts: []genai.Part{{Text: "p"}}})
	if err != nil {
		t.Fatalf("Generate expected success after retry, got error: %v", err)
	}
	if res.Text != "ok" {
		t.Fatalf("expected text %q, got %q", "ok", res.Text)
	}
	if res.Meta == nil {
		t.Fatalf("expected meta in result")
	}
	if _, ok := res.Meta["latency_ms"]; !ok {
		t.Fatalf("expected latency_ms in meta")
	}
	if atomic.LoadInt32(&attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestClient_Generate_SendsInlineDataAndKey(t *testing.T) {
	var gotKey string
	var gotBody struct {
		Contents []struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MIMEType string `json:"mime_type"`
					Data     string `json:"data"`
				} `json:"inline_data"`
			} `json:"parts"`
		} `json:"contents"`
		GenerationConfig struct {
			ResponseMIMEType string `json:"responseMimeType"`
		} `json:"generationConfig"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeCandidate(w, "{}")
	}))
	defer srv.Close()

	cfg := config.GenAIConfig{BaseURL: srv.URL, APIKey: "secret", Timeout: 2 * time.Second, CircuitFailureThreshold: 10, RequestsPerMinute: 600}
	client, err := genai.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	req := genai.Request{
		Parts: []genai.Part{
			{Data: []byte("pdf-bytes"), MIME: "application/pdf"},
			{Text: "classify this"},
		},
		JSONResponse: true,
	}
	if _, err := client.Generate(context.Background(), "m", req); err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if gotKey != "secret" {
		t.Fatalf("expected api key in query, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", gotBody)
	}
	if gotBody.Contents[0].Parts[0].InlineData == nil || gotBody.Contents[0].Parts[0].InlineData.MIMEType != "application/pdf" {
		t.Fatalf("expected inline document part first, got %+v", gotBody.Contents[0].Parts[0])
	}
	if gotBody.Contents[0].Parts[1].Text != "classify this" {
		t.Fatalf("expected text part, got %+v", gotBody.Contents[0].Parts[1])
	}
	if gotBody.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response mime type, got %q", gotBody.GenerationConfig.ResponseMIMEType)
	}
}

func TestClient_CircuitBreaker_Opens(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt32(&attempts, 1)
			http.Error(w, "permanent", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := config.GenAIConfig{BaseURL: srv.URL, Timeout: 1 * time.Second, Retries: 0, Backoff: 1 * time.Millisecond, CircuitFailureThreshold: 2, CircuitReset: 1 * time.Minute, RequestsPerMinute: 600}
	client, err := genai.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	ctx := context.Background()
	// first two calls should return an error (but not ErrCircuitOpen).
	for i := 0; i < 2; i++ {
		if _, err := client.Generate(ctx, "m", genai.Request{Parts: []genai.Part{{Text: "p"}}}); err == nil {
			t.Fatalf("expected error on attempt %d", i+1)
		}
	}

	// next call should hit circuit open
	if _, err := client.Generate(ctx, "m", genai.Request{Parts: []genai.Part{{Text: "p"}}}); err != genai.ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}
