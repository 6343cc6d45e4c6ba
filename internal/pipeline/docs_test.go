package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/admitkit/docverify/internal/config"
	"github.com/admitkit/docverify/internal/enquiry"
	"github.com/admitkit/docverify/internal/extract"
	"github.com/admitkit/docverify/internal/pipeline"
	"github.com/admitkit/docverify/internal/store"
)

// scriptedProvider answers classification and extraction calls separately;
// extraction calls are the ones asking for a JSON response.
type scriptedProvider struct {
	classifyOut string
	extractOut  string
	err         error
}

func (s *scriptedProvider) Generate(ctx context.Context, model string, p extract.Prompt) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if p.JSONResponse {
		return s.extractOut, nil
	}
	return s.classifyOut, nil
}

func (s *scriptedProvider) Close() error { return nil }

func newDocFixture(t *testing.T, p extract.Provider) (*store.Store, *pipeline.DocProcessor, string, string) {
	t.Helper()
	engine, err := extract.NewEngine(p, config.ExtractConfig{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	st := store.New(slog.Default())
	enq := st.CreateEnquiry("Mina", "Park", "mina@example.com")
	doc, err := st.AddDocument(enq.ID, "resume.pdf", "application/pdf", []byte("%PDF-"))
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	return st, pipeline.NewDocProcessor(st, engine, slog.Default()), enq.ID, doc.ID
}

func TestDocProcessor_ExtractedFlow(t *testing.T) {
	p := &scriptedProvider{
		classifyOut: "Resume",
		extractOut:  `{"first_name":{"value":"Mina","confidence_score":92},"work_experiences":[]}`,
	}
	st, proc, enqID, docID := newDocFixture(t, p)

	if err := proc.Process(context.Background(), enqID, docID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	doc, err := st.Document(enqID, docID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.Status != enquiry.StatusExtracted {
		t.Fatalf("expected Extracted, got %s", doc.Status)
	}
	if doc.Category != enquiry.CategoryResume {
		t.Fatalf("expected Resume, got %s", doc.Category)
	}
	if doc.Extracted == nil {
		t.Fatalf("expected draft on document")
	}
	if got := doc.Extracted.Fields[enquiry.FieldFirstName].Value.String(); got != "Mina" {
		t.Fatalf("draft lost extracted value, got %q", got)
	}
	// shaping must fill the schema fields the model skipped
	if len(doc.Extracted.Fields) != len(enquiry.FieldsForCategory(enquiry.CategoryResume)) {
		t.Fatalf("draft not fully shaped: %d fields", len(doc.Extracted.Fields))
	}
}

func TestDocProcessor_OtherIsSkipped(t *testing.T) {
	p := &scriptedProvider{classifyOut: "a scanned grocery list"}
	st, proc, enqID, docID := newDocFixture(t, p)

	if err := proc.Process(context.Background(), enqID, docID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	doc, _ := st.Document(enqID, docID)
	if doc.Status != enquiry.StatusSkipped {
		t.Fatalf("expected Skipped, got %s", doc.Status)
	}
	if doc.Extracted != nil {
		t.Fatalf("skipped document should carry no draft")
	}
}

func TestDocProcessor_ProviderErrorLeavesProcessing(t *testing.T) {
	p := &scriptedProvider{err: errors.New("backend down")}
	st, proc, enqID, docID := newDocFixture(t, p)

	if err := proc.Process(context.Background(), enqID, docID); err == nil {
		t.Fatalf("expected error from Process")
	}

	// the document stays in Processing so a retried job can resume
	doc, _ := st.Document(enqID, docID)
	if doc.Status != enquiry.StatusProcessing {
		t.Fatalf("expected Processing, got %s", doc.Status)
	}

	// a second run after the backend recovers succeeds
	p.err = nil
	p.classifyOut = "Transcript"
	p.extractOut = `{"degree":{"value":"BSc","confidence_score":85}}`
	if err := proc.Process(context.Background(), enqID, docID); err != nil {
		t.Fatalf("retry Process: %v", err)
	}
	doc, _ = st.Document(enqID, docID)
	if doc.Status != enquiry.StatusExtracted {
		t.Fatalf("expected Extracted after retry, got %s", doc.Status)
	}
}

func TestDocProcessor_DeadLetterMarksFailed(t *testing.T) {
	p := &scriptedProvider{err: errors.New("backend down")}
	st, proc, enqID, docID := newDocFixture(t, p)

	// first attempt moves the doc to Processing and fails
	if err := proc.Process(context.Background(), enqID, docID); err == nil {
		t.Fatalf("expected error from Process")
	}

	payload, _ := json.Marshal(pipeline.DocPayload{EnquiryID: enqID, DocumentID: docID})
	job := &pipeline.Job{
		Type:      pipeline.JobTypeProcessDocument,
		Payload:   payload,
		Status:    "failed",
		LastError: "backend down",
	}
	proc.DeadLetter()(context.Background(), job)

	doc, _ := st.Document(enqID, docID)
	if doc.Status != enquiry.StatusFailed {
		t.Fatalf("expected Failed, got %s", doc.Status)
	}
	if doc.Error != "backend down" {
		t.Fatalf("expected last error recorded, got %q", doc.Error)
	}
}
