package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/admitkit/docverify/internal/enquiry"
	"github.com/admitkit/docverify/internal/extract"
	"github.com/admitkit/docverify/internal/store"
)

// JobTypeProcessDocument is the queue entry created for every uploaded file.
const JobTypeProcessDocument = "doc.process"

// DocPayload identifies the document a doc.process job works on.
type DocPayload struct {
	EnquiryID  string `json:"enquiry_id"`
	DocumentID string `json:"document_id"`
}

// DocProcessor drives one document through classification and extraction.
// Each job run takes the document from Uploaded to one of its terminal
// pre-review states: Extracted, Skipped, or Failed.
type DocProcessor struct {
	store  *store.Store
	engine *extract.Engine
	logger *slog.Logger
}

func NewDocProcessor(s *store.Store, e *extract.Engine, logger *slog.Logger) *DocProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocProcessor{store: s, engine: e, logger: logger}
}

// Handler returns the job handler to register under JobTypeProcessDocument.
func (p *DocProcessor) Handler() Handler {
	return func(ctx context.Context, j *Job) error {
		var payload DocPayload
		if err := json.Unmarshal(j.Payload, &payload); err != nil {
			return fmt.Errorf("decode doc payload: %w", err)
		}
		return p.Process(ctx, payload.EnquiryID, payload.DocumentID)
	}
}

// Process runs the pipeline for one document. A retried job finds the
// document already in Processing and resumes from there.
func (p *DocProcessor) Process(ctx context.Context, enquiryID, docID string) error {
	err := p.store.UpdateDocument(enquiryID, docID, func(d *enquiry.Document) error {
		if d.Status == enquiry.StatusProcessing {
			return nil
		}
		return d.Advance(enquiry.StatusProcessing)
	})
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	doc, err := p.store.Document(enquiryID, docID)
	if err != nil {
		return err
	}

	cat, err := p.engine.Classify(ctx, doc)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	if cat == enquiry.CategoryOther {
		p.logger.Info("document skipped", "enquiry_id", enquiryID, "document_id", docID)
		return p.store.UpdateDocument(enquiryID, docID, func(d *enquiry.Document) error {
			d.Category = cat
			return d.Advance(enquiry.StatusSkipped)
		})
	}

	doc.Category = cat
	draft, err := p.engine.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	p.logger.Info("document extracted",
		"enquiry_id", enquiryID,
		"document_id", docID,
		"category", string(cat),
		"fields", len(draft.Fields))

	return p.store.UpdateDocument(enquiryID, docID, func(d *enquiry.Document) error {
		d.Category = cat
		d.Extracted = draft
		return d.Advance(enquiry.StatusExtracted)
	})
}

// DeadLetter marks the document Failed once its job has exhausted retries.
func (p *DocProcessor) DeadLetter() DeadLetterFunc {
	return func(ctx context.Context, j *Job) {
		if j.Type != JobTypeProcessDocument {
			return
		}
		var payload DocPayload
		if err := json.Unmarshal(j.Payload, &payload); err != nil {
			p.logger.Error("decode dead-letter payload", "err", err)
			return
		}
		err := p.store.UpdateDocument(payload.EnquiryID, payload.DocumentID, func(d *enquiry.Document) error {
			d.Error = j.LastError
			return d.Advance(enquiry.StatusFailed)
		})
		if err != nil {
			p.logger.Error("mark document failed", "err", err,
				"enquiry_id", payload.EnquiryID, "document_id", payload.DocumentID)
			return
		}
		p.logger.Warn("document failed permanently",
			"enquiry_id", payload.EnquiryID,
			"document_id", payload.DocumentID,
			"last_error", j.LastError)
	}
}
