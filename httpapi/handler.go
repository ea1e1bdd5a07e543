// Package httpapi exposes the REST surface: auth, the onboarding chat and
// the document endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"buildfund/auth"
	"buildfund/documents"
	"buildfund/onboarding"
	"buildfund/verification"
)

// AuthService is the auth surface the API needs.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

// ConversationService is the onboarding surface the API needs.
type ConversationService interface {
	StartOrResume(ctx context.Context, userID string, role onboarding.Role, sessionID string) (onboarding.TurnResponse, error)
	HandleMessage(ctx context.Context, req onboarding.TurnRequest) (onboarding.TurnResponse, error)
	Progress(ctx context.Context, userID string) (onboarding.Progress, error)
}

// DocumentService is the document surface the API needs.
type DocumentService interface {
	List(ctx context.Context, userID string) ([]documents.Document, error)
	Get(ctx context.Context, userID, docID string) (documents.Document, error)
	Register(ctx context.Context, doc documents.Document) (documents.Document, error)
}

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	auth       AuthService
	onboarding ConversationService
	documents  DocumentService
	gateway    verification.Gateway
	logger     *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(authSvc AuthService, convo ConversationService, docs DocumentService, gateway verification.Gateway, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:       authSvc,
		onboarding: convo,
		documents:  docs,
		gateway:    gateway,
		logger:     logger,
	}
}

// Routes assembles the router. Everything under /api except auth requires a
// bearer token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/onboarding/chat", h.handleChatStart)
			r.Post("/onboarding/chat", h.handleChatMessage)
			r.Get("/onboarding/progress", h.handleProgress)
			r.Post("/onboarding/verify-address", h.handleVerifyAddress)
			r.Post("/onboarding/verify-company", h.handleVerifyCompany)

			r.Get("/documents", h.handleListDocuments)
			r.Post("/documents", h.handleRegisterDocument)
			r.Get("/documents/{documentID}", h.handleGetDocument)
		})
	})

	return r
}

// writeJSON writes a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response failed", "error", err)
	}
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
