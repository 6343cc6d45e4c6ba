// Package session implements the human verification pass: one reviewer
// working through one enquiry's documents for one group, editing the merged
// extraction draft, and ending in an atomic commit or a discard.
package session

import (
	"errors"
	"sync"

	"github.com/admitkit/docverify/internal/enquiry"
)

// State is the session's blocking state shown to the reviewer.
type State string

const (
	// StateWaiting means at least one document is still moving through the
	// pipeline and could land in this group; show progress, not a form.
	StateWaiting State = "waiting"
	// StateReady means the merged draft is open for editing.
	StateReady State = "ready"
	// StateDeadEnd means no document reached Extracted for this group; the
	// reviewer can only close the session.
	StateDeadEnd State = "dead_end"
)

var (
	ErrNotReady      = errors.New("session is not ready for editing")
	ErrUnknownField  = errors.New("field is not part of this session's draft")
	ErrBadIndex      = errors.New("experience index out of range")
	ErrAlreadyClosed = errors.New("session is closed")
)

// Session is one review pass over an (enquiry, group) pair. All methods are
// safe for concurrent use.
type Session struct {
	ID        string
	EnquiryID string
	Group     enquiry.Group

	mu    sync.Mutex
	state State
	draft *enquiry.Draft
	// docIDs is the commit set: the Extracted documents merged into the draft.
	docIDs []string
	// scope holds snapshots of the merged documents, in stored order, for the
	// viewer; step is the navigation cursor over them.
	scope []*enquiry.Document
	step  int
}

func newSession(id string, g enquiry.Group, enq *enquiry.Enquiry) *Session {
	s := &Session{ID: id, EnquiryID: enq.ID, Group: g, state: StateWaiting}
	s.build(enq)
	return s
}

// build computes the session state from an enquiry snapshot. Documents still
// in Uploaded or Processing have no final category yet, so any of them could
// resolve into this group; their presence keeps the session waiting.
func (s *Session) build(enq *enquiry.Enquiry) {
	cat, _ := enquiry.CategoryForGroup(s.Group)

	var pending bool
	var extracted []*enquiry.Document
	for _, d := range enq.Documents {
		switch d.Status {
		case enquiry.StatusUploaded, enquiry.StatusProcessing:
			pending = true
		case enquiry.StatusExtracted:
			if d.Category == cat {
				extracted = append(extracted, d)
			}
		}
	}

	if len(extracted) == 0 {
		if pending {
			s.state = StateWaiting
		} else {
			s.state = StateDeadEnd
		}
		return
	}

	// merge in stored order: scalars last-write-wins, experiences appended
	draft := enquiry.NewDraft()
	ids := make([]string, 0, len(extracted))
	for _, d := range extracted {
		draft.Merge(d.Extracted)
		ids = append(ids, d.ID)
	}

	s.state = StateReady
	s.draft = draft
	s.docIDs = ids
	s.scope = extracted
	s.step = 0
}

// Refresh recomputes a waiting session against a fresh enquiry snapshot. A
// ready session keeps its working draft; reviewer edits are never clobbered.
func (s *Session) Refresh(enq *enquiry.Enquiry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateWaiting {
		return
	}
	s.build(enq)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns a copy of the working draft.
func (s *Session) Draft() (*enquiry.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return nil, ErrNotReady
	}
	return s.draft.Clone(), nil
}

// Documents returns the merged documents in review order.
func (s *Session) Documents() []*enquiry.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*enquiry.Document, len(s.scope))
	for i, d := range s.scope {
		out[i] = d.Clone()
	}
	return out
}

// SetField overwrites a field's value, preserving the extraction's confidence
// score, label, and bounding box for audit display.
func (s *Session) SetField(name string, v enquiry.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	c, ok := s.draft.Fields[name]
	if !ok {
		return ErrUnknownField
	}
	c.Value = v
	s.draft.Fields[name] = c
	return nil
}

// AppendExperience adds a blank reviewer-entered record and returns its index.
func (s *Session) AppendExperience() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return 0, ErrNotReady
	}
	s.draft.Experiences = append(s.draft.Experiences, enquiry.BlankExperience())
	return len(s.draft.Experiences) - 1, nil
}

// SetExperience overwrites the values of one experience record, keeping the
// extraction confidence of each column.
func (s *Session) SetExperience(i int, company, title, duration enquiry.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	if i < 0 || i >= len(s.draft.Experiences) {
		return ErrBadIndex
	}
	exp := &s.draft.Experiences[i]
	exp.Company.Value = company
	exp.Title.Value = title
	exp.Duration.Value = duration
	return nil
}

// RemoveExperience deletes one record by index.
func (s *Session) RemoveExperience(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	if i < 0 || i >= len(s.draft.Experiences) {
		return ErrBadIndex
	}
	s.draft.Experiences = append(s.draft.Experiences[:i], s.draft.Experiences[i+1:]...)
	return nil
}

// Step returns the current navigation cursor.
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// SetStep moves the cursor. The cursor only selects which document the viewer
// shows; it never gates which fields are editable.
func (s *Session) SetStep(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.scope) {
		return ErrBadIndex
	}
	s.step = i
	return nil
}

// commit builds the verification commit from the current draft. Fields whose
// value is still null are left out; they never become verified facts.
func (s *Session) commit() (enquiry.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return enquiry.Commit{}, ErrNotReady
	}

	fields := make(map[string]enquiry.Value)
	for name, c := range s.draft.Fields {
		if c.Value.IsNull() {
			continue
		}
		fields[name] = c.Value
	}

	var exps []enquiry.ExperienceRecord
	if s.draft.Experiences != nil {
		exps = make([]enquiry.ExperienceRecord, 0, len(s.draft.Experiences))
		for _, e := range s.draft.Experiences {
			exps = append(exps, enquiry.ExperienceRecord{
				Company:  e.Company.Value,
				Title:    e.Title.Value,
				Duration: e.Duration.Value,
			})
		}
	}

	return enquiry.Commit{
		Group:       s.Group,
		Fields:      fields,
		Experiences: exps,
		DocumentIDs: append([]string(nil), s.docIDs...),
	}, nil
}
