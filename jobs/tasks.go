// Package jobs runs background work over Asynq: outbound mail and periodic
// maintenance.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kencana-erp/kencana-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeMaintenanceCleanup prunes aged idempotency keys.
	TaskTypeMaintenanceCleanup = "maintenance:cleanup"
)

// idempotencyRetention is how long processed keys are kept before cleanup.
const idempotencyRetention = 30 * 24 * time.Hour

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// TODO: deliver through the SMTP relay once credentials are provisioned.
	slog.Default().Info("send email",
		slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

// NewMaintenanceCleanupTask constructs the periodic cleanup task.
func NewMaintenanceCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeMaintenanceCleanup, nil)
}

// NewMaintenanceCleanupHandler prunes idempotency keys past retention.
func NewMaintenanceCleanupHandler(store *shared.IdempotencyStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if err := store.Cleanup(ctx, idempotencyRetention); err != nil {
			logger.Error("idempotency cleanup", slog.Any("error", err))
			return err
		}
		logger.Info("idempotency cleanup done")
		return nil
	}
}
