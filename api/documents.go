package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/admitkit/docverify/internal/enquiry"
	"github.com/admitkit/docverify/internal/pipeline"
	"github.com/admitkit/docverify/internal/store"
)

// maxUploadBytes bounds a whole multipart upload request.
const maxUploadBytes = 64 << 20

// maxFileBytes bounds a single uploaded file.
const maxFileBytes = 20 << 20

type DocumentsHandler struct {
	store *store.Store
	queue *pipeline.Repository
}

func NewDocumentsHandler(st *store.Store, queue *pipeline.Repository) *DocumentsHandler {
	return &DocumentsHandler{store: st, queue: queue}
}

type uploadResponse struct {
	Documents []*enquiry.Document `json:"documents"`
}

// UploadDocuments accepts a multipart form with one or more files under the
// "files" field. Each file becomes an Uploaded document and a doc.process job.
// Files are read concurrently; one bad file fails the whole request before
// anything is enqueued.
func (h *DocumentsHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	enquiryID := mux.Vars(r)["id"]
	if _, err := h.store.Get(enquiryID); err != nil {
		http.Error(w, "enquiry not found", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	type upload struct {
		name     string
		mimeType string
		content  []byte
	}
	uploads := make([]upload, len(files))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for i, fh := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := readFile(fh)
			if err != nil {
				return err
			}
			mimeType := fh.Header.Get("Content-Type")
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}
			uploads[i] = upload{name: fh.Filename, mimeType: mimeType, content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		http.Error(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	docs := make([]*enquiry.Document, 0, len(uploads))
	for _, u := range uploads {
		d, err := h.store.AddDocument(enquiryID, u.name, u.mimeType, u.content)
		if err != nil {
			http.Error(w, "failed to store document", http.StatusInternalServerError)
			return
		}
		payload, _ := json.Marshal(pipeline.DocPayload{EnquiryID: enquiryID, DocumentID: d.ID})
		j := &pipeline.Job{Type: pipeline.JobTypeProcessDocument, Payload: payload, Priority: 100, MaxAttempts: 3}
		if _, err := h.queue.Enqueue(r.Context(), j); err != nil {
			http.Error(w, "failed to enqueue processing job", http.StatusInternalServerError)
			return
		}
		docs = append(docs, d)
	}

	writeJSON(w, uploadResponse{Documents: docs}, http.StatusCreated)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxFileBytes {
		return nil, errors.New(fh.Filename + ": file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxFileBytes))
}

func (h *DocumentsHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := h.store.Document(vars["id"], vars["docID"])
	if err != nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, d, http.StatusOK)
}

func (h *DocumentsHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.RemoveDocument(vars["id"], vars["docID"]); err != nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
