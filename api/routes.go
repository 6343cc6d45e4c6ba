package api

import (
	"github.com/gorilla/mux"

	"github.com/admitkit/docverify/internal/config"
	"github.com/admitkit/docverify/internal/db"
	"github.com/admitkit/docverify/internal/pipeline"
	"github.com/admitkit/docverify/internal/repository/sqlite"
	"github.com/admitkit/docverify/internal/session"
	"github.com/admitkit/docverify/internal/store"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB, st *store.Store, queue *pipeline.Repository, mgr *session.Manager) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(db, nil)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	enquiriesHandler := NewEnquiriesHandler(st)
	documentsHandler := NewDocumentsHandler(st, queue)
	sessionsHandler := NewSessionsHandler(mgr)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Enquiry endpoints
	apiV1.HandleFunc("/enquiries", enquiriesHandler.CreateEnquiry).Methods("POST")
	apiV1.HandleFunc("/enquiries", enquiriesHandler.ListEnquiries).Methods("GET")
	apiV1.HandleFunc("/enquiries/{id}", enquiriesHandler.GetEnquiry).Methods("GET")

	// Document endpoints
	apiV1.HandleFunc("/enquiries/{id}/documents", documentsHandler.UploadDocuments).Methods("POST")
	apiV1.HandleFunc("/enquiries/{id}/documents/{docID}", documentsHandler.GetDocument).Methods("GET")
	apiV1.HandleFunc("/enquiries/{id}/documents/{docID}", documentsHandler.DeleteDocument).Methods("DELETE")

	// Verification session endpoints
	apiV1.HandleFunc("/enquiries/{id}/sessions", sessionsHandler.OpenSession).Methods("POST")
	apiV1.HandleFunc("/sessions/{sessionID}", sessionsHandler.GetSession).Methods("GET")
	apiV1.HandleFunc("/sessions/{sessionID}", sessionsHandler.CancelSession).Methods("DELETE")
	apiV1.HandleFunc("/sessions/{sessionID}/fields/{field}", sessionsHandler.SetField).Methods("PUT")
	apiV1.HandleFunc("/sessions/{sessionID}/experiences", sessionsHandler.AppendExperience).Methods("POST")
	apiV1.HandleFunc("/sessions/{sessionID}/experiences/{index}", sessionsHandler.SetExperience).Methods("PUT")
	apiV1.HandleFunc("/sessions/{sessionID}/experiences/{index}", sessionsHandler.RemoveExperience).Methods("DELETE")
	apiV1.HandleFunc("/sessions/{sessionID}/step", sessionsHandler.SetStep).Methods("PUT")
	apiV1.HandleFunc("/sessions/{sessionID}/complete", sessionsHandler.CompleteSession).Methods("POST")

	return r
}
