package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/brift-backend/internal/auth"
	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/models"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and sign-up.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()
	userID, profile, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := h.issueToken(ctx, userID, profile.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Login successful", ID: userID, Data: tok})
}

// Signin handles POST /auth/signin: it registers the user and logs them in.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	profile, settings := req.Split()

	ctx, cancel := h.storeContext(r)
	defer cancel()
	userID, err := h.Users.Create(ctx, profile, settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := h.issueToken(ctx, userID, profile.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Message: "User created successfully", ID: userID, Data: tok})
}

// Logout handles POST /auth/logout by revoking the caller's session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "Unauthorized"})
		return
	}
	if err := h.Sessions.InvalidateSession(r.Context(), claims.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Logged out successfully", ID: claims.Subject})
}

func (h *Handler) issueToken(ctx context.Context, userID, email string) (*TokenResponse, error) {
	signed, claims, err := h.Tokens.Generate(userID, email)
	if err != nil {
		return nil, err
	}
	if err := h.Sessions.CreateSession(ctx, userID, claims.ID, h.Tokens.TTL()); err != nil {
		return nil, err
	}
	h.Log.InfoContext(ctx, "access token issued", logger.FieldUserID, userID, logger.FieldOperation, logger.OpLogin)
	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.Tokens.TTL().Seconds()),
		UserID:      userID,
	}, nil
}
