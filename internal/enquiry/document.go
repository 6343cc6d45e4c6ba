package enquiry

import (
	"errors"
	"fmt"
)

// Category is the classification label assigned to an uploaded file. The
// string values are the exact answers the classification service may return.
type Category string

const (
	CategoryResume       Category = "Resume"
	CategoryTranscript   Category = "Transcript"
	CategoryCOE          Category = "Certificate of Enrollment (COE)"
	CategoryLanguageTest Category = "Language Test Result"
	CategoryOther        Category = "Other"
)

// ParseCategory maps a service answer to a category by exact match; anything
// else, including close variants, resolves to Other.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryResume, CategoryTranscript, CategoryCOE, CategoryLanguageTest:
		return Category(s)
	default:
		return CategoryOther
	}
}

// Status is a document's position in the upload → classification → extraction
// → verification lifecycle.
type Status string

const (
	StatusUploaded   Status = "Uploaded"
	StatusProcessing Status = "Processing"
	StatusExtracted  Status = "Extracted"
	StatusSkipped    Status = "Skipped"
	StatusFailed     Status = "Failed"
	StatusVerified   Status = "Verified"
)

var ErrBadTransition = errors.New("invalid document status transition")

// transitions lists, per state, the states reachable from it. Skipped, Failed
// and Verified are terminal.
var transitions = map[Status][]Status{
	StatusUploaded:   {StatusProcessing},
	StatusProcessing: {StatusExtracted, StatusSkipped, StatusFailed},
	StatusExtracted:  {StatusVerified},
}

// CanTransition reports whether a document may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Document is one uploaded file owned by exactly one enquiry. It is created
// on upload and mutated in place by the lifecycle; it is never deleted except
// by explicit user removal.
type Document struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Status    Status   `json:"status"`
	Content   []byte   `json:"-"`
	MIMEType  string   `json:"mime_type"`
	Extracted *Draft   `json:"extracted_data,omitempty"`
	// Error holds the pipeline failure message when Status is Failed.
	Error string `json:"error,omitempty"`
}

// NewDocument returns a freshly uploaded document. The category placeholder is
// Other so no wrong real classification is ever shown transiently.
func NewDocument(id, name, mimeType string, content []byte) *Document {
	return &Document{
		ID:       id,
		Name:     name,
		Category: CategoryOther,
		Status:   StatusUploaded,
		Content:  content,
		MIMEType: mimeType,
	}
}

// Advance moves the document to the given status, enforcing the lifecycle
// order. No transition is ever skipped or reversed.
func (d *Document) Advance(to Status) error {
	if !CanTransition(d.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, d.Status, to)
	}
	d.Status = to
	return nil
}

// Clone returns a deep copy; Content is shared since raw bytes are immutable
// after upload.
func (d *Document) Clone() *Document {
	cp := *d
	if d.Extracted != nil {
		cp.Extracted = d.Extracted.Clone()
	}
	return &cp
}
