package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/hugh/go-contacts/internal/api/dto"
	"github.com/hugh/go-contacts/internal/auth"
)

type AuthHandler struct {
	authService auth.Authenticator
	logger      *slog.Logger
}

func NewAuthHandler(authService auth.Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeValidation(w, errors)
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			writeError(w, http.StatusConflict, "User already exists")
		default:
			h.logger.Error("registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewUserResponse(user))
}

// Login handles POST /login. Credentials arrive as an OAuth2 password form
// (username, password) or as a JSON object.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loginRequest(w, r)
	if !ok {
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeValidation(w, errors)
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Login(),
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		case errors.Is(err, auth.ErrUnverifiedUser):
			writeError(w, http.StatusForbidden, "Please verify your email to log in.")
		default:
			h.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: resp.Token,
		TokenType:   "bearer",
	})
}

func (h *AuthHandler) loginRequest(w http.ResponseWriter, r *http.Request) (dto.LoginRequest, bool) {
	var req dto.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if !decodeJSON(w, r, &req) {
			return req, false
		}
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseMultipartForm(maxJSONBody); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form body")
			return req, false
		}
		defer r.MultipartForm.RemoveAll()
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form body")
			return req, false
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	return req, true
}

// VerifyEmail handles GET /verify_email?token=
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeValidation(w, map[string]string{"token": "Token is required"})
		return
	}

	if _, err := h.authService.VerifyEmail(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("email verification failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.DetailResponse{Detail: "Email verified"})
}
