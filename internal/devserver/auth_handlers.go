package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/grocery-scan/internal/auth"
)

const refreshCookieName = "refresh_token"

// AuthHandlers serves the /api/auth routes.
type AuthHandlers struct {
	store  *Store
	issuer *auth.TokenIssuer
}

func NewAuthHandlers(store *Store, issuer *auth.TokenIssuer) *AuthHandlers {
	return &AuthHandlers{store: store, issuer: issuer}
}

// authData is the payload of register/login/refresh responses. The refresh
// token travels both in the body (for API clients that store it themselves)
// and as an HTTP-only cookie (for browser-style clients).
type authData struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user, err := h.store.CreateUser(req.Email, req.Name, hash)
	if err != nil {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}
	h.respondWithTokens(w, user, http.StatusCreated)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := h.store.UserByEmail(req.Email)
	if !ok || !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	h.respondWithTokens(w, user, http.StatusOK)
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out"})
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(refreshCookieName); err == nil {
			req.RefreshToken = cookie.Value
		}
	}
	if req.RefreshToken == "" {
		respondError(w, http.StatusUnauthorized, "Missing refresh token")
		return
	}

	userID, err := h.issuer.VerifyRefresh(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	user, ok := h.store.UserByID(userID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unknown user")
		return
	}
	h.respondWithTokens(w, user, http.StatusOK)
}

func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.bearerClaims(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	user, found := h.store.UserByID(claims.UserID)
	if !found {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *AuthHandlers) bearerClaims(r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	claims, err := h.issuer.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// respondWithTokens issues the token pair in the body, plus the refresh
// token as an HTTP-only cookie.
func (h *AuthHandlers) respondWithTokens(w http.ResponseWriter, user *User, status int) {
	access, _, err := h.issuer.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	refresh, refreshExpiry, err := h.issuer.IssueRefresh(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/api/auth",
		Expires:  refreshExpiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondData(w, status, authData{User: user, AccessToken: access, RefreshToken: refresh})
}
