// Package store holds all enquiry aggregates for the session in memory.
// Every mutation funnels through a named operation so the merge and
// derivation invariants stay enforceable in one place; per-document updates
// are applied functionally keyed by id and never replace sibling state.
package store

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/admitkit/docverify/internal/enquiry"
)

var (
	ErrEnquiryNotFound  = errors.New("enquiry not found")
	ErrDocumentNotFound = errors.New("document not found")
)

type Store struct {
	mu        sync.RWMutex
	enquiries map[string]*enquiry.Enquiry
	order     []string
	logger    *slog.Logger
}

func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		enquiries: make(map[string]*enquiry.Enquiry),
		logger:    logger,
	}
}

// CreateEnquiry registers a new candidate and returns a snapshot.
func (s *Store) CreateEnquiry(firstName, lastName, email string) *enquiry.Enquiry {
	e := enquiry.New(uuid.NewString(), firstName, lastName, email)

	s.mu.Lock()
	s.enquiries[e.ID] = e
	s.order = append([]string{e.ID}, s.order...)
	s.mu.Unlock()

	s.logger.Info("enquiry created", "enquiry_id", e.ID, "email", email)
	return e.Clone()
}

// Get returns a snapshot of one enquiry.
func (s *Store) Get(id string) (*enquiry.Enquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enquiries[id]
	if !ok {
		return nil, ErrEnquiryNotFound
	}
	return e.Clone(), nil
}

// List returns snapshots of all enquiries, newest first.
func (s *Store) List() []*enquiry.Enquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*enquiry.Enquiry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.enquiries[id].Clone())
	}
	return out
}

// AddDocument attaches a freshly uploaded document and returns its snapshot.
func (s *Store) AddDocument(enquiryID, name, mimeType string, content []byte) (*enquiry.Document, error) {
	d := enquiry.NewDocument(uuid.NewString(), name, mimeType, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enquiries[enquiryID]
	if !ok {
		return nil, ErrEnquiryNotFound
	}
	e.AddDocument(d)
	return d.Clone(), nil
}

// UpdateDocument applies fn to exactly one document under the store lock.
// Sibling documents are untouched, so concurrent pipelines for different
// documents never clobber each other.
func (s *Store) UpdateDocument(enquiryID, docID string, fn func(*enquiry.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enquiries[enquiryID]
	if !ok {
		return ErrEnquiryNotFound
	}
	d := e.Document(docID)
	if d == nil {
		return ErrDocumentNotFound
	}
	return fn(d)
}

// Document returns a snapshot of one document.
func (s *Store) Document(enquiryID, docID string) (*enquiry.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enquiries[enquiryID]
	if !ok {
		return nil, ErrEnquiryNotFound
	}
	d := e.Document(docID)
	if d == nil {
		return nil, ErrDocumentNotFound
	}
	return d.Clone(), nil
}

// RemoveDocument excises a document record; verification history is kept.
func (s *Store) RemoveDocument(enquiryID, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enquiries[enquiryID]
	if !ok {
		return ErrEnquiryNotFound
	}
	if !e.RemoveDocument(docID) {
		return ErrDocumentNotFound
	}
	return nil
}

// ApplyCommit writes a completed verification session into the aggregate.
func (s *Store) ApplyCommit(enquiryID string, c enquiry.Commit, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enquiries[enquiryID]
	if !ok {
		return ErrEnquiryNotFound
	}
	if err := e.Apply(c, now); err != nil {
		return err
	}
	s.logger.Info("verification committed",
		"enquiry_id", enquiryID, "group", string(c.Group), "documents", len(c.DocumentIDs), "status", string(e.Status))
	return nil
}
