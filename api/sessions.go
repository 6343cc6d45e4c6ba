package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/admitkit/docverify/internal/enquiry"
	"github.com/admitkit/docverify/internal/session"
	"github.com/admitkit/docverify/internal/store"
)

type SessionsHandler struct {
	manager *session.Manager
}

func NewSessionsHandler(mgr *session.Manager) *SessionsHandler {
	return &SessionsHandler{manager: mgr}
}

type openSessionRequest struct {
	Group string `json:"group"`
}

type sessionView struct {
	ID        string              `json:"id"`
	EnquiryID string              `json:"enquiry_id"`
	Group     enquiry.Group       `json:"group"`
	State     session.State       `json:"state"`
	Step      int                 `json:"step"`
	Draft     *enquiry.Draft      `json:"draft,omitempty"`
	Documents []*enquiry.Document `json:"documents"`
}

func viewOf(s *session.Session) sessionView {
	v := sessionView{
		ID:        s.ID,
		EnquiryID: s.EnquiryID,
		Group:     s.Group,
		State:     s.State(),
		Step:      s.Step(),
		Documents: s.Documents(),
	}
	if d, err := s.Draft(); err == nil {
		v.Draft = d
	}
	return v
}

// sessionError maps domain errors onto HTTP statuses.
func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, store.ErrEnquiryNotFound):
		http.Error(w, "enquiry not found", http.StatusNotFound)
	case errors.Is(err, enquiry.ErrDocumentNotFound):
		http.Error(w, "document no longer present", http.StatusNotFound)
	case errors.Is(err, session.ErrNotReady):
		http.Error(w, "session is not ready", http.StatusConflict)
	case errors.Is(err, enquiry.ErrDocumentNotReady):
		http.Error(w, "document is no longer awaiting verification", http.StatusConflict)
	case errors.Is(err, session.ErrUnknownField):
		http.Error(w, "unknown field", http.StatusBadRequest)
	case errors.Is(err, session.ErrBadIndex):
		http.Error(w, "experience index out of range", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *SessionsHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	enquiryID := mux.Vars(r)["id"]

	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	g, ok := enquiry.ParseGroup(req.Group)
	if !ok {
		http.Error(w, "unknown group", http.StatusBadRequest)
		return
	}

	s, err := h.manager.Open(enquiryID, g)
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, viewOf(s), http.StatusCreated)
}

func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(mux.Vars(r)["sessionID"])
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, viewOf(s), http.StatusOK)
}

type setFieldRequest struct {
	Value enquiry.Value `json:"value"`
}

func (h *SessionsHandler) SetField(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s, err := h.manager.Get(vars["sessionID"])
	if err != nil {
		sessionError(w, err)
		return
	}

	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := s.SetField(vars["field"], req.Value); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, viewOf(s), http.StatusOK)
}

type experienceRequest struct {
	Company  enquiry.Value `json:"company"`
	Title    enquiry.Value `json:"title"`
	Duration enquiry.Value `json:"duration"`
}

type appendExperienceResponse struct {
	Index int `json:"index"`
}

func (h *SessionsHandler) AppendExperience(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(mux.Vars(r)["sessionID"])
	if err != nil {
		sessionError(w, err)
		return
	}
	i, err := s.AppendExperience()
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, appendExperienceResponse{Index: i}, http.StatusCreated)
}

func (h *SessionsHandler) SetExperience(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s, err := h.manager.Get(vars["sessionID"])
	if err != nil {
		sessionError(w, err)
		return
	}
	idx, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	var req experienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := s.SetExperience(idx, req.Company, req.Title, req.Duration); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, viewOf(s), http.StatusOK)
}

func (h *SessionsHandler) RemoveExperience(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s, err := h.manager.Get(vars["sessionID"])
	if err != nil {
		sessionError(w, err)
		return
	}
	idx, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	if err := s.RemoveExperience(idx); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, viewOf(s), http.StatusOK)
}

type setStepRequest struct {
	Step int `json:"step"`
}

func (h *SessionsHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(mux.Vars(r)["sessionID"])
	if err != nil {
		sessionError(w, err)
		return
	}

	var req setStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := s.SetStep(req.Step); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, viewOf(s), http.StatusOK)
}

func (h *SessionsHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionID"]
	staffEmail := StaffEmail(r.Context())
	if staffEmail == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.manager.Complete(r.Context(), id, staffEmail, time.Now().UTC()); err != nil {
		sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Cancel(mux.Vars(r)["sessionID"]); err != nil {
		sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
