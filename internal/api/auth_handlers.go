package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/retailhub/internal/api/middleware"
	"github.com/example/retailhub/internal/auth"
	"github.com/example/retailhub/internal/domain/user"
	"github.com/example/retailhub/internal/users"
)

// AuthHandlers serves registration, login, and session endpoints.
type AuthHandlers struct {
	users      *users.Service
	jwtService *auth.JWTService
}

func NewAuthHandlers(userSvc *users.Service, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		users:      userSvc,
		jwtService: jwtService,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User    *user.User `json:"user"`
	Message string     `json:"message,omitempty"`
}

// Register creates an account and signs the user in.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		respondJSONError(w, "email is required", http.StatusBadRequest)
		return
	}

	newUser, err := h.users.Register(r.Context(), req.Email, req.Password, req.FullName, req.Phone)
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, user.ErrEmailTaken):
		respondJSONError(w, "email already registered", http.StatusConflict)
		return
	case err != nil:
		log.Printf("[API] Registration failed for %s: %v", req.Email, err)
		respondJSONError(w, "could not register", http.StatusInternalServerError)
		return
	}

	h.setAuthCookie(w, r, newUser)

	respondJSON(w, http.StatusCreated, AuthResponse{
		User:    newUser,
		Message: "Registration successful",
	})
}

// Login verifies credentials and sets the access token cookie.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		respondJSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("[API] Login failed for %s: %v", req.Email, err)
		respondJSONError(w, "could not log in", http.StatusInternalServerError)
		return
	}

	h.setAuthCookie(w, r, u)

	respondJSON(w, http.StatusOK, AuthResponse{
		User:    u,
		Message: "Login successful",
	})
}

// Logout clears the access token cookie. The token itself stays valid
// until expiry; there is no server-side session to revoke.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Me returns the authenticated user's account.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.Get(r.Context(), claims.UserID)
	if errors.Is(err, user.ErrUserNotFound) {
		respondJSONError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Failed to load user %s: %v", claims.UserID, err)
		respondJSONError(w, "could not load account", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, u)
}

func (h *AuthHandlers) setAuthCookie(w http.ResponseWriter, r *http.Request, u *user.User) {
	token, expiresAt, err := h.jwtService.GenerateToken(u.ID, u.Email, u.Role())
	if err != nil {
		log.Printf("[API] Failed to generate token for user %s: %v", u.ID, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}
