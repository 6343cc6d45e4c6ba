package enquiry

import (
	"errors"
	"time"
)

// EnquiryStatus is the aggregate-level verification status.
type EnquiryStatus string

const (
	EnquiryUnverified EnquiryStatus = "Unverified"
	EnquiryVerified   EnquiryStatus = "Verified"
)

// VerifiedField is one accepted fact on the candidate record.
type VerifiedField struct {
	Value          Value      `json:"value"`
	IsUserProvided bool       `json:"is_user_provided"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
}

// ExperienceRecord is a verified work history entry (values only; confidence
// metadata is not carried past the review).
type ExperienceRecord struct {
	Company  Value `json:"company"`
	Title    Value `json:"title"`
	Duration Value `json:"duration"`
}

// HistoryEntry records one committed verification session for a group.
type HistoryEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	DocumentIDs []string  `json:"document_ids"`
}

// Commit is the output of a completed verification session, applied atomically
// to the aggregate.
type Commit struct {
	Group       Group
	Fields      map[string]Value
	Experiences []ExperienceRecord
	DocumentIDs []string
}

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentNotReady = errors.New("document is not in Extracted status")
)

// Enquiry is the aggregate root: one candidate's identity, documents,
// verified data, and audit history.
type Enquiry struct {
	ID          string                   `json:"id"`
	FirstName   string                   `json:"first_name"`
	LastName    string                   `json:"last_name"`
	Email       string                   `json:"email"`
	Status      EnquiryStatus            `json:"status"`
	Documents   []*Document              `json:"documents"`
	Verified    map[string]VerifiedField `json:"verified_fields"`
	WorkHistory []ExperienceRecord       `json:"work_history,omitempty"`
	History     map[Group]*HistoryEntry  `json:"verification_history"`
}

// New creates an enquiry seeded with the staff-provided identity fields
// (marked user-provided until a document verification overwrites them) and
// all four history slots empty.
func New(id, firstName, lastName, email string) *Enquiry {
	e := &Enquiry{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Status:    EnquiryUnverified,
		Verified:  make(map[string]VerifiedField),
		History:   make(map[Group]*HistoryEntry, len(Groups)),
	}
	for _, g := range Groups {
		e.History[g] = nil
	}
	e.Verified[FieldFirstName] = VerifiedField{Value: StringValue(firstName), IsUserProvided: true}
	e.Verified[FieldLastName] = VerifiedField{Value: StringValue(lastName), IsUserProvided: true}
	e.Verified[FieldEmail] = VerifiedField{Value: StringValue(email), IsUserProvided: true}
	return e
}

// Document finds an owned document by id.
func (e *Enquiry) Document(id string) *Document {
	for _, d := range e.Documents {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (e *Enquiry) AddDocument(d *Document) {
	e.Documents = append(e.Documents, d)
}

// RemoveDocument excises the record. It does not cascade into the
// verification history or the verified fields.
func (e *Enquiry) RemoveDocument(id string) bool {
	for i, d := range e.Documents {
		if d.ID == id {
			e.Documents = append(e.Documents[:i], e.Documents[i+1:]...)
			return true
		}
	}
	return false
}

// Apply writes a verification commit into the aggregate: every field becomes
// a verified fact, every document in the commit set moves to Verified, the
// group's history slot is stamped, and the aggregate status is recomputed.
// The documents are validated first so the commit is all-or-nothing.
func (e *Enquiry) Apply(c Commit, now time.Time) error {
	docs := make([]*Document, 0, len(c.DocumentIDs))
	for _, id := range c.DocumentIDs {
		d := e.Document(id)
		if d == nil {
			return ErrDocumentNotFound
		}
		if d.Status != StatusExtracted {
			return ErrDocumentNotReady
		}
		docs = append(docs, d)
	}

	at := now
	for name, v := range c.Fields {
		e.Verified[name] = VerifiedField{Value: v, IsUserProvided: false, VerifiedAt: &at}
	}
	if c.Experiences != nil {
		e.WorkHistory = c.Experiences
	}
	for _, d := range docs {
		d.Status = StatusVerified
	}
	e.History[c.Group] = &HistoryEntry{Timestamp: now, DocumentIDs: append([]string(nil), c.DocumentIDs...)}
	e.Status = e.deriveStatus()
	return nil
}

// deriveStatus recomputes the aggregate status: verified exactly when the
// personal/work and education groups both have a committed session.
func (e *Enquiry) deriveStatus() EnquiryStatus {
	if e.History[GroupPersonalWork] != nil && e.History[GroupEducation] != nil {
		return EnquiryVerified
	}
	return EnquiryUnverified
}

// CompletedGroups counts history slots with a committed session.
func (e *Enquiry) CompletedGroups() int {
	n := 0
	for _, g := range Groups {
		if e.History[g] != nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe to hand outside the store.
func (e *Enquiry) Clone() *Enquiry {
	cp := *e
	cp.Documents = make([]*Document, len(e.Documents))
	for i, d := range e.Documents {
		cp.Documents[i] = d.Clone()
	}
	cp.Verified = make(map[string]VerifiedField, len(e.Verified))
	for k, v := range e.Verified {
		cp.Verified[k] = v
	}
	cp.WorkHistory = append([]ExperienceRecord(nil), e.WorkHistory...)
	cp.History = make(map[Group]*HistoryEntry, len(e.History))
	for g, h := range e.History {
		if h == nil {
			cp.History[g] = nil
			continue
		}
		hc := *h
		hc.DocumentIDs = append([]string(nil), h.DocumentIDs...)
		cp.History[g] = &hc
	}
	return &cp
}
