package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/markb/galerie/internal/log"
)

// AccessTokenLifetime is the lifetime of user access tokens issued by
// the auth API. Matches the hosted service's default.
const AccessTokenLifetime = time.Hour

// AuthAPI serves the /auth/v1 surface: password sign-in, sign-up,
// sign-out and the authenticated user resource.
type AuthAPI struct {
	users  UserStore
	secret []byte
}

func NewAuthAPI(users UserStore, jwtSecret []byte) *AuthAPI {
	return &AuthAPI{users: users, secret: jwtSecret}
}

// Routes mounts the auth endpoints on a fresh router.
func (a *AuthAPI) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/token", a.handleToken)
	r.Post("/signup", a.handleSignup)
	r.Post("/logout", a.handleLogout)
	r.Get("/user", a.handleGetUser)
	r.Put("/user", a.handleUpdateUser)
	return r
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user"`
}

type authError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (a *AuthAPI) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "password" {
		writeAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "only the password grant is supported")
		return
	}

	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	user, err := a.users.Authenticate(r.Context(), body.Email, body.Password)
	if errors.Is(err, ErrBadCredentials) {
		writeAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid login credentials")
		return
	}
	if err != nil {
		log.Error("sign-in failed", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "server_error", "unable to sign in")
		return
	}

	token, err := a.signAccessToken(user)
	if err != nil {
		log.Error("access token signing failed", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "server_error", "unable to sign token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(AccessTokenLifetime.Seconds()),
		User:        user,
	})
}

func (a *AuthAPI) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeAuthError(w, http.StatusUnprocessableEntity, "validation_failed", "email and password are required")
		return
	}

	user, err := a.users.CreateUser(r.Context(), body.Email, body.Password)
	if errors.Is(err, ErrUserExists) {
		writeAuthError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}
	if err != nil {
		log.Error("sign-up failed", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "server_error", "unable to sign up")
		return
	}

	log.Info("user provisioned", "email", body.Email)
	writeJSON(w, http.StatusOK, user)
}

func (a *AuthAPI) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Access tokens are stateless; logout just requires a valid one.
	if _, err := a.authenticate(r); err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token", "invalid or missing access token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AuthAPI) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := a.authenticate(r)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token", "invalid or missing access token")
		return
	}

	user, err := a.users.GetUser(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		writeAuthError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "server_error", "unable to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *AuthAPI) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := a.authenticate(r)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token", "invalid or missing access token")
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if body.Password == "" {
		writeAuthError(w, http.StatusUnprocessableEntity, "validation_failed", "password is required")
		return
	}

	if err := a.users.UpdatePassword(r.Context(), userID, body.Password); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeAuthError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		log.Error("password update failed", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "server_error", "unable to update user")
		return
	}

	user, err := a.users.GetUser(r.Context(), userID)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "server_error", "unable to load user")
		return
	}
	log.Info("user password updated")
	writeJSON(w, http.StatusOK, user)
}

// signAccessToken issues an HS256 access token with the user id as
// subject and the authenticated role claim.
func (a *AuthAPI) signAccessToken(user *User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  "authenticated",
		"jti":   uuid.New().String(),
		"iat":   now.Unix(),
		"exp":   now.Add(AccessTokenLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// authenticate extracts and verifies the Bearer token, returning the
// subject user id.
func (a *AuthAPI) authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, authError{Error: code, ErrorDescription: description})
}
