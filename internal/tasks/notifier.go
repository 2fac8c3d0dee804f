package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-contacts/internal/auth"
	"github.com/hugh/go-contacts/internal/database/models"
	"github.com/hugh/go-contacts/internal/mail"
)

// Enqueuer is the subset of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier hands verification emails to the worker queue, or sends them
// directly when no queue is configured.
type Notifier struct {
	queue   Enqueuer
	sender  mail.Sender
	baseURL string
	logger  *slog.Logger
}

var _ auth.VerificationNotifier = (*Notifier)(nil)

func NewNotifier(queue Enqueuer, sender mail.Sender, baseURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		queue:   queue,
		sender:  sender,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (n *Notifier) NotifyVerification(ctx context.Context, user *models.User) error {
	if n.queue != nil {
		task, err := NewSendVerificationEmailTask(SendVerificationEmailPayload{
			UserID: user.ID,
			Email:  user.Email,
		})
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		info, err := n.queue.EnqueueContext(ctx, task)
		if err != nil {
			return fmt.Errorf("enqueueing verification email: %w", err)
		}
		n.logger.Debug("verification email queued", "user_id", user.ID, "task_id", info.ID)
		return nil
	}

	link := mail.VerificationLink(n.baseURL, user.ID)
	if n.sender == nil {
		n.logger.Warn("mail not configured, verification link not sent", "user_id", user.ID, "link", link)
		return nil
	}

	return n.sender.Send(ctx, mail.VerificationMessage(user.Email, link))
}
