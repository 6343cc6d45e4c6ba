package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/admitkit/docverify/internal/config"
	"github.com/admitkit/docverify/internal/enquiry"
)

// package-level logger for internal/extract; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by internal/extract. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Engine turns raw document bytes into a category and an extraction draft by
// prompting a model backend and validating what comes back.
type Engine struct {
	provider Provider
	cfg      config.ExtractConfig
	schemas  *schemaCache
}

// NewEngine creates an extraction engine on top of a provider.
func NewEngine(provider Provider, cfg config.ExtractConfig) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	// apply sensible defaults
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ClassifyModel == "" {
		cfg.ClassifyModel = "gemini-3-flash-preview"
	}
	if cfg.ExtractModel == "" {
		cfg.ExtractModel = "gemini-3-pro-preview"
	}

	schemas, err := newSchemaCache()
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}

	return &Engine{provider: provider, cfg: cfg, schemas: schemas}, nil
}

// Classify asks the model which category a document belongs to. Any answer
// that is not an exact category name maps to Other.
func (e *Engine) Classify(ctx context.Context, doc *enquiry.Document) (enquiry.Category, error) {
	prompt, err := classifyPrompt()
	if err != nil {
		return enquiry.CategoryOther, fmt.Errorf("render classify prompt: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out, err := e.provider.Generate(ctxReq, e.cfg.ClassifyModel, Prompt{
		Text:     prompt,
		Document: doc.Content,
		MIME:     doc.MIMEType,
	})
	if err != nil {
		return enquiry.CategoryOther, fmt.Errorf("classify generate: %w", err)
	}

	cat := parseCategoryReply(out)
	logger.Info("document classified",
		slog.String("document_id", doc.ID),
		slog.String("category", string(cat)),
		slog.String("raw", strings.TrimSpace(out)))
	return cat, nil
}

// Extract prompts the model for the document category's schema and shapes the
// answer into a draft. Output the model mangles beyond repair yields an
// all-null draft rather than an error; the reviewer fills the gaps by hand.
func (e *Engine) Extract(ctx context.Context, doc *enquiry.Document) (*enquiry.Draft, error) {
	cat := doc.Category
	if cat == enquiry.CategoryOther {
		return nil, fmt.Errorf("category %q has no extraction schema", cat)
	}

	prompt, err := extractPrompt(cat)
	if err != nil {
		return nil, fmt.Errorf("render extract prompt: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out, err := e.provider.Generate(ctxReq, e.cfg.ExtractModel, Prompt{
		Text:         prompt,
		Document:     doc.Content,
		MIME:         doc.MIMEType,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract generate: %w", err)
	}

	// validate the raw object against the category schema; violations are
	// logged but the draft still goes to review
	if j := extractJSON(out); j != "" {
		if schema, ok := e.schemas.get(cat); ok {
			verrs, verr := schema.ValidateBytes(ctxReq, []byte(j))
			if verr != nil {
				logger.Warn("schema validate error",
					slog.String("document_id", doc.ID), slog.Any("error", verr))
			} else if len(verrs) > 0 {
				var sb strings.Builder
				for _, v := range verrs {
					sb.WriteString(v.Message)
					sb.WriteString("; ")
				}
				logger.Warn("extraction violates schema",
					slog.String("document_id", doc.ID),
					slog.String("category", string(cat)),
					slog.String("violations", sb.String()))
			}
		}
	}

	draft, perr := parseDraft(out)
	if perr != nil {
		logger.Warn("extraction parse failed, using empty draft",
			slog.String("document_id", doc.ID),
			slog.Any("error", perr),
			slog.String("raw", out))
		return emptyDraft(cat), nil
	}

	return shapeDraft(cat, draft), nil
}

// Close releases the underlying provider.
func (e *Engine) Close() error { return e.provider.Close() }
