package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type tokenResponse struct {
	ConstructionID string `json:"constructionId"`
	Token          string `json:"token"`
}

// Refresh trades a valid edit token for a fresh one. It must sit behind
// RequireEditToken.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	constructionID := ConstructionIDFromContext(r.Context())
	if constructionID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing construction scope"})
		return
	}

	token, err := h.service.IssueToken(constructionID)
	if err != nil {
		slog.Error("refresh token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{ConstructionID: constructionID, Token: token})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
