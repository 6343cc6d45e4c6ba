// Package genai is a thin HTTP client for a hosted generative-language API.
// It only knows how to send a document plus a prompt and hand back the model
// text; retries, timeouts, rate limiting, and a circuit breaker are layered
// on so callers never talk to the raw endpoint.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/admitkit/docverify/internal/config"
)

var ErrCircuitOpen = errors.New("genai circuit open")

// package-level logger for pkg/genai; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/genai. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Part is one piece of a request: either inline document bytes or prompt text.
type Part struct {
	Text string
	Data []byte
	MIME string
}

// Request is one generation call.
type Request struct {
	Parts []Part
	// JSONResponse asks the model to answer with a bare JSON object.
	JSONResponse bool
	Temperature  float64
}

// Result is a typed representation of a model response.
type Result struct {
	Text string          `json:"text"`
	Raw  json.RawMessage `json:"raw"`
	Meta map[string]any  `json:"meta,omitempty"`
}

// Client wraps the hosted API and adds retries, timeout, rate limiting, and a
// circuit breaker.
type Client struct {
	cfg     config.GenAIConfig
	client  *http.Client
	limiter *rate.Limiter

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32 // atomic flag for Close()
}

// NewClient creates a new client wrapper.
func NewClient(cfg config.GenAIConfig, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	c := &Client{
		cfg:     cfg,
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}
	logger.Info("genai: NewClient created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

func NewDefaultClient(cfg config.GenAIConfig) (*Client, error) {
	defaultClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewClient(cfg, defaultClient)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}
	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}
	// attempt half-open: reset failures and allow a request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

// Close releases any resources held by the client. It closes idle connections
// on the underlying HTTP transport when supported and is safe to call more
// than once.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
			logger.Info("genai: client Close() called - CloseIdleConnections invoked")
		}
	}
	return nil
}

// wire types for the hosted generateContent endpoint

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inline_data,omitempty"`
}

type wireInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type wireRequest struct {
	Contents []struct {
		Parts []wirePart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type wireResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends a request to the model and collects the response text. It
// supports retries with backoff and honors the circuit breaker and limiter.
func (c *Client) Generate(ctx context.Context, model string, req Request) (Result, error) {
	var empty Result
	if c.isCircuitOpen() {
		return empty, ErrCircuitOpen
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return empty, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(buildWireRequest(req))
	if err != nil {
		return empty, fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return empty, err
	}
	u = u.ResolveReference(&url.URL{Path: fmt.Sprintf("/v1beta/models/%s:generateContent", model)})
	if c.cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", c.cfg.APIKey)
		u.RawQuery = q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		start := time.Now()
		res, raw, err := c.doOnce(ctx, u.String(), body)
		latency := time.Since(start)
		if err == nil {
			atomic.StoreInt32(&c.failures, 0)
			meta := map[string]any{"model": model, "latency_ms": latency.Milliseconds()}
			return Result{Text: res, Raw: raw, Meta: meta}, nil
		}

		lastErr = err
		c.recordFailure()

		// backoff
		time.Sleep(c.cfg.Backoff * time.Duration(attempt+1))
		if c.isCircuitOpen() {
			return empty, ErrCircuitOpen
		}
	}

	return empty, fmt.Errorf("generate failed after retries: %w", lastErr)
}

func (c *Client) doOnce(ctx context.Context, url string, body []byte) (string, json.RawMessage, error) {
	ctxReq, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctxReq, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("generate endpoint returned status %d", resp.StatusCode)
	}

	var wr wireResponse
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&wr); err != nil {
		return "", nil, fmt.Errorf("decode response: %w", err)
	}
	if len(wr.Candidates) == 0 || len(wr.Candidates[0].Content.Parts) == 0 {
		return "", nil, fmt.Errorf("response carried no candidates")
	}

	text := ""
	for _, p := range wr.Candidates[0].Content.Parts {
		text += p.Text
	}
	raw, _ := json.Marshal(wr)
	return text, raw, nil
}

func buildWireRequest(req Request) wireRequest {
	var wr wireRequest
	wr.Contents = make([]struct {
		Parts []wirePart `json:"parts"`
	}, 1)
	for _, p := range req.Parts {
		if p.Data != nil {
			wr.Contents[0].Parts = append(wr.Contents[0].Parts, wirePart{
				InlineData: &wireInlineData{
					MIMEType: p.MIME,
					Data:     base64.StdEncoding.EncodeToString(p.Data),
				},
			})
			continue
		}
		wr.Contents[0].Parts = append(wr.Contents[0].Parts, wirePart{Text: p.Text})
	}
	wr.GenerationConfig.Temperature = req.Temperature
	if req.JSONResponse {
		wr.GenerationConfig.ResponseMIMEType = "application/json"
	}
	return wr
}
