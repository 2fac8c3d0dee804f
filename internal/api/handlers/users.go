package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/hugh/go-contacts/internal/api/dto"
	"github.com/hugh/go-contacts/internal/api/middleware"
	"github.com/hugh/go-contacts/internal/auth"
	"github.com/hugh/go-contacts/internal/avatars"
)

const DefaultMaxAvatarBytes = 5 << 20

type UserHandler struct {
	authService    auth.Authenticator
	avatars        avatars.Store
	maxAvatarBytes int64
	logger         *slog.Logger
}

func NewUserHandler(authService auth.Authenticator, store avatars.Store, maxAvatarBytes int64, logger *slog.Logger) *UserHandler {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = DefaultMaxAvatarBytes
	}
	return &UserHandler{
		authService:    authService,
		avatars:        store,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

// Me handles GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewUserResponse(middleware.GetUser(r.Context())))
}

// UpdateAvatar handles PATCH /avatar with a multipart "file" field.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if h.avatars == nil {
		writeError(w, http.StatusServiceUnavailable, "Avatar storage is not configured")
		return
	}

	// room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+(64<<10))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, h.sizeMessage())
			return
		}
		writeValidation(w, map[string]string{"file": "Multipart form with a file field is required"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidation(w, map[string]string{"file": "File is required"})
		return
	}
	defer file.Close()

	data, contentType, err := h.readAvatar(file, header)
	if err != nil {
		writeValidation(w, map[string]string{"file": err.Error()})
		return
	}

	url, err := h.avatars.Upload(r.Context(), user.ID, header.Filename, contentType, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, avatars.ErrUnsupportedType) {
			writeValidation(w, map[string]string{"file": "File must be an image"})
			return
		}
		h.logger.Error("avatar upload failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusBadGateway, "Avatar upload failed")
		return
	}

	updated, err := h.authService.SetAvatar(r.Context(), user.ID, url)
	if err != nil {
		h.logger.Error("failed to store avatar url", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	writeJSON(w, http.StatusOK, dto.AvatarResponse{Avatar: *updated.Avatar})
}

// readAvatar loads the upload into memory and resolves its content type,
// sniffing the bytes when the client sent none.
func (h *UserHandler) readAvatar(file multipart.File, header *multipart.FileHeader) ([]byte, string, error) {
	if header.Size > h.maxAvatarBytes {
		return nil, "", errors.New(h.sizeMessage())
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxAvatarBytes+1))
	if err != nil {
		return nil, "", errors.New("Could not read file")
	}
	if int64(len(data)) > h.maxAvatarBytes {
		return nil, "", errors.New(h.sizeMessage())
	}
	if len(data) == 0 {
		return nil, "", errors.New("File is empty")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !avatars.IsImage(contentType) {
		return nil, "", errors.New("File must be an image")
	}

	return data, contentType, nil
}

func (h *UserHandler) sizeMessage() string {
	return fmt.Sprintf("File must be at most %d bytes", h.maxAvatarBytes)
}
