package api

import (
	"net/http"

	"github.com/squaremart/stockd/internal/auth"
)

// AuthHandler issues JWTs to configured API clients.
type AuthHandler struct {
	Clients   []auth.Client
	JWTSecret string
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Token handles POST /api/auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !auth.VerifyClient(h.Clients, req.ClientID, req.ClientSecret) {
		jsonError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, req.ClientID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"token": token})
}
