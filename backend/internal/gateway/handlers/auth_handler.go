package handlers

import (
	"context"
	"net/http"

	"plp_smartgrade/backend/internal/auth"
	"plp_smartgrade/backend/internal/gateway/util"
)

// AuthService is the part of auth.Service the handlers call
type AuthService interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*auth.LoginResult, error)
	VerifyMagicLink(ctx context.Context, token string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler serves the login endpoints
type AuthHandler struct {
	Auth AuthService
}

// RESTRequestOTP mirrors the JSON input for /auth/request-otp
type RESTRequestOTP struct {
	Email string `json:"email"`
}

// RESTVerifyOTP mirrors the JSON input for /auth/verify-otp
type RESTVerifyOTP struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RESTMagicLink mirrors the JSON input for /auth/magic-link
type RESTMagicLink struct {
	Token string `json:"token"`
}

// RequestOTP handles POST /auth/request-otp.
// The response is the same whether or not the account exists.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req RESTRequestOTP
	if err := util.DecodeJSON(w, r, &req); err != nil {
		util.HandleError(w, err)
		return
	}

	if err := h.Auth.RequestOTP(r.Context(), req.Email); err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If the account exists, a login code has been sent to the email address",
	})
}

// VerifyOTP handles POST /auth/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req RESTVerifyOTP
	if err := util.DecodeJSON(w, r, &req); err != nil {
		util.HandleError(w, err)
		return
	}

	result, err := h.Auth.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, result)
}

// MagicLink handles POST /auth/magic-link
func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	var req RESTMagicLink
	if err := util.DecodeJSON(w, r, &req); err != nil {
		util.HandleError(w, err)
		return
	}

	result, err := h.Auth.VerifyMagicLink(r.Context(), req.Token)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout. Logging out twice is not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := util.UserFromContext(r.Context())
	if user == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	util.WriteJSON(w, http.StatusOK, user)
}
