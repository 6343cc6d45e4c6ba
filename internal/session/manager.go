package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/admitkit/docverify/internal/enquiry"
	"github.com/admitkit/docverify/internal/store"
	"github.com/admitkit/docverify/pkg/models"
	"github.com/admitkit/docverify/pkg/repository"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager owns the open sessions and applies their outcomes to the store.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store  *store.Store
	events repository.EventRepo
	logger *slog.Logger
}

func NewManager(st *store.Store, events repository.EventRepo, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    st,
		events:   events,
		logger:   logger,
	}
}

// Open starts a review pass for one (enquiry, group) pair.
func (m *Manager) Open(enquiryID string, g enquiry.Group) (*Session, error) {
	enq, err := m.store.Get(enquiryID)
	if err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), g, enq)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session opened",
		slog.String("session_id", s.ID),
		slog.String("enquiry_id", enquiryID),
		slog.String("group", string(g)),
		slog.String("state", string(s.State())))
	return s, nil
}

// Get returns an open session, refreshing a waiting one against the store so
// pipeline progress is reflected.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if s.State() == StateWaiting {
		if enq, err := m.store.Get(s.EnquiryID); err == nil {
			s.Refresh(enq)
		}
	}
	return s, nil
}

// Complete commits a ready session: the draft becomes verified fields, the
// merged documents move to Verified, and an audit event is recorded. The
// session is closed on success.
func (m *Manager) Complete(ctx context.Context, id, staffEmail string, now time.Time) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}

	c, err := s.commit()
	if err != nil {
		return err
	}

	if err := m.store.ApplyCommit(s.EnquiryID, c, now); err != nil {
		return fmt.Errorf("apply commit: %w", err)
	}

	if m.events != nil {
		docIDs, _ := json.Marshal(c.DocumentIDs)
		fields, _ := json.Marshal(c.Fields)
		ev := &models.VerificationEvent{
			EnquiryID:   s.EnquiryID,
			Group:       string(c.Group),
			StaffEmail:  staffEmail,
			DocumentIDs: string(docIDs),
			FieldsJSON:  string(fields),
		}
		if _, err := m.events.CreateEvent(ctx, ev); err != nil {
			m.logger.Warn("create verification event failed", "err", err)
		}
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	m.logger.Info("session committed",
		slog.String("session_id", id),
		slog.String("enquiry_id", s.EnquiryID),
		slog.String("group", string(c.Group)),
		slog.Int("fields", len(c.Fields)),
		slog.Int("documents", len(c.DocumentIDs)))
	return nil
}

// Cancel discards the session's draft. No enquiry state changes.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}
