package httpapi

import (
	"encoding/json"
	"net/http"

	"buildfund/onboarding"
)

type chatMessageRequest struct {
	SessionID string `json:"session_id"`
	Step      string `json:"step"`
	Message   string `json:"message"`
}

type verifyAddressRequest struct {
	AddressLine1 string `json:"address_line1"`
	Postcode     string `json:"postcode"`
	Town         string `json:"town"`
	Country      string `json:"country"`
}

type verifyCompanyRequest struct {
	CompanyNumber string `json:"company_number"`
	CompanyName   string `json:"company_name"`
}

// handleChatStart opens or resumes the caller's onboarding conversation.
func (h *Handler) handleChatStart(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r.Context())
	role := onboarding.Role(callerRole(r.Context()))
	sessionID := r.URL.Query().Get("session_id")

	resp, err := h.onboarding.StartOrResume(r.Context(), userID, role, sessionID)
	if err != nil {
		h.logger.Error("start conversation failed", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "could not start conversation")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleChatMessage processes one conversation turn.
func (h *Handler) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := callerID(r.Context())
	resp, err := h.onboarding.HandleMessage(r.Context(), onboarding.TurnRequest{
		UserID:    userID,
		Role:      onboarding.Role(callerRole(r.Context())),
		SessionID: req.SessionID,
		Step:      req.Step,
		Message:   req.Message,
	})
	if err != nil {
		h.logger.Error("chat turn failed", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "could not process message")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r.Context())

	prog, err := h.onboarding.Progress(r.Context(), userID)
	if err != nil {
		h.logger.Error("load progress failed", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "could not load progress")
		return
	}

	h.writeJSON(w, http.StatusOK, prog)
}

// handleVerifyAddress runs a standalone address lookup outside the chat flow.
func (h *Handler) handleVerifyAddress(w http.ResponseWriter, r *http.Request) {
	var req verifyAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Postcode == "" {
		h.writeError(w, http.StatusBadRequest, "postcode is required")
		return
	}
	if req.Country == "" {
		req.Country = "United Kingdom"
	}

	result := h.gateway.VerifyAddress(r.Context(), req.AddressLine1, req.Postcode, req.Town, req.Country)
	h.writeJSON(w, http.StatusOK, result)
}

// handleVerifyCompany runs a standalone registry lookup outside the chat flow.
func (h *Handler) handleVerifyCompany(w http.ResponseWriter, r *http.Request) {
	var req verifyCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyNumber == "" {
		h.writeError(w, http.StatusBadRequest, "company_number is required")
		return
	}

	result := h.gateway.VerifyCompany(r.Context(), req.CompanyNumber, req.CompanyName)
	h.writeJSON(w, http.StatusOK, result)
}
