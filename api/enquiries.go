package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/admitkit/docverify/internal/store"
)

type EnquiriesHandler struct {
	store *store.Store
}

func NewEnquiriesHandler(st *store.Store) *EnquiriesHandler {
	return &EnquiriesHandler{store: st}
}

type createEnquiryRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (h *EnquiriesHandler) CreateEnquiry(w http.ResponseWriter, r *http.Request) {
	var req createEnquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	e := h.store.CreateEnquiry(req.FirstName, req.LastName, req.Email)
	writeJSON(w, e, http.StatusCreated)
}

func (h *EnquiriesHandler) ListEnquiries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.List(), http.StatusOK)
}

func (h *EnquiriesHandler) GetEnquiry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, err := h.store.Get(id)
	if err != nil {
		http.Error(w, "enquiry not found", http.StatusNotFound)
		return
	}
	writeJSON(w, e, http.StatusOK)
}
