package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/findingthem/findingthem/internal/database"
	"github.com/findingthem/findingthem/internal/intake"
	"github.com/findingthem/findingthem/internal/web/middleware"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor used by the original deployment.
const bcryptCost = 10

// AuthHandler handles registration and authentication endpoints.
type AuthHandler struct {
	accounts       database.AccountStore
	sessionManager *middleware.SessionManager
	results        *intake.ResultHolder
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts database.AccountStore, sm *middleware.SessionManager, results *intake.ResultHolder) *AuthHandler {
	return &AuthHandler{
		accounts:       accounts,
		sessionManager: sm,
		results:        results,
	}
}

// SignupRequest represents a registration request.
type SignupRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	FullName      string `json:"fullname"`
	Role          string `json:"role"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
}

func (r *SignupRequest) validate() string {
	required := map[string]string{
		"username":       r.Username,
		"password":       r.Password,
		"fullname":       r.FullName,
		"role":           r.Role,
		"email":          r.Email,
		"contact_number": r.ContactNumber,
		"address":        r.Address,
	}
	var missing []string
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return strings.Join(missing, ", ") + " required"
	}
	if !database.Role(r.Role).Valid() {
		return "role must be individual, ngo or police"
	}
	return ""
}

// LoginResponse represents a login or signup response.
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Role      string `json:"role,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Signup registers a new account and logs it in. The role is fixed at
// creation and never changes afterwards.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	account, err := h.accounts.Create(r.Context(), &database.Account{
		Username:      req.Username,
		PasswordHash:  string(hash),
		FullName:      req.FullName,
		Role:          database.Role(req.Role),
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
	})
	if errors.Is(err, database.ErrUsernameTaken) {
		respondError(w, http.StatusBadRequest, "username is already taken")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.startSession(w, account, http.StatusCreated)
}

// loginRequest represents a login request.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles user login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	account, err := h.accounts.FindByUsername(r.Context(), req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	// Same response for unknown user and wrong password.
	if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		respondJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Error:   "invalid username or password",
		})
		return
	}

	h.startSession(w, account, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, account *database.Account, status int) {
	session, err := h.sessionManager.CreateSession(account.ID, account.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, status, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		Role:      string(session.Role),
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout destroys the session and with it the session's match results.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.results.Clear(session.ID)
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the user is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Role:          string(session.Role),
		ExpiresAt:     session.ExpiresAt.Format(time.RFC3339),
	})
}
