package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"buildfund/documents"
)

type registerDocumentRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Category string `json:"category"`
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r.Context())

	docs, err := h.documents.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("list documents failed", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "could not list documents")
		return
	}
	if docs == nil {
		docs = []documents.Document{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r.Context())
	docID := chi.URLParam(r, "documentID")

	doc, err := h.documents.Get(r.Context(), userID, docID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.logger.Error("get document failed", "user_id", userID, "document_id", docID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "could not load document")
		return
	}

	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleRegisterDocument(w http.ResponseWriter, r *http.Request) {
	var req registerDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileName == "" {
		h.writeError(w, http.StatusBadRequest, "file_name is required")
		return
	}

	userID := callerID(r.Context())
	doc, err := h.documents.Register(r.Context(), documents.Document{
		UserID:   userID,
		FileName: req.FileName,
		FileType: req.FileType,
		Category: req.Category,
	})
	if err != nil {
		h.logger.Error("register document failed", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "could not register document")
		return
	}

	h.writeJSON(w, http.StatusCreated, doc)
}
