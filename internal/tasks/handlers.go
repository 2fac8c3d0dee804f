package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/go-contacts/internal/database/models"
	"github.com/hugh/go-contacts/internal/mail"
	"gorm.io/gorm"
)

type Handler struct {
	db      *gorm.DB
	logger  *slog.Logger
	sender  mail.Sender
	baseURL string
}

// NewHandler creates the worker-side task handler. db may be nil, in which
// case verification emails are sent without checking the user's state.
func NewHandler(db *gorm.DB, logger *slog.Logger, sender mail.Sender, baseURL string) *Handler {
	return &Handler{
		db:      db,
		logger:  logger,
		sender:  sender,
		baseURL: baseURL,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSendVerificationEmail, h.HandleSendVerificationEmail)
}

func (h *Handler) HandleSendVerificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendVerificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == uuid.Nil || payload.Email == "" {
		return fmt.Errorf("payload missing user_id or email: %w", asynq.SkipRetry)
	}

	if h.db != nil {
		var user models.User
		err := h.db.WithContext(ctx).Select("id", "is_verified").First(&user, "id = ?", payload.UserID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			h.logger.Warn("skipping verification email for unknown user", "user_id", payload.UserID)
			return nil
		case err != nil:
			return fmt.Errorf("loading user: %w", err)
		case user.IsVerified:
			h.logger.Info("user already verified, skipping email", "user_id", payload.UserID)
			return nil
		}
	}

	link := mail.VerificationLink(h.baseURL, payload.UserID)
	if h.sender == nil {
		h.logger.Warn("mail not configured, verification link not sent", "user_id", payload.UserID, "link", link)
		return nil
	}
	if err := h.sender.Send(ctx, mail.VerificationMessage(payload.Email, link)); err != nil {
		h.logger.Error("verification email failed", "user_id", payload.UserID, "error", err)
		return err
	}

	h.logger.Info("verification email sent", "user_id", payload.UserID)
	return nil
}
