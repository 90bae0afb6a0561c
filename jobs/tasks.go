// Package jobs carries the asynq task definitions and the worker that
// consumes them. Delivery of verification email is out-of-band from the
// request path: the web process only enqueues.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeVerificationEmail delivers an email-verification capability.
	TaskTypeVerificationEmail = "verify:email"
)

// VerificationEmailPayload is the capability payload the notifier embeds
// into the verification link. The signature travels with it; no secret does.
type VerificationEmailPayload struct {
	Email       string `json:"email"`
	PrincipalID int64  `json:"principal_id"`
	ContentHash string `json:"content_hash"`
	ExpiresAt   int64  `json:"expires_at"`
	Signature   string `json:"signature"`
}

// NewVerificationEmailTask constructs an Asynq task.
func NewVerificationEmailTask(payload VerificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVerificationEmail, data, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// VerificationEmailJob processes TaskTypeVerificationEmail tasks. A nil
// Sender degrades to log-only delivery so local flows without a relay can
// still be completed by hand.
type VerificationEmailJob struct {
	Logger *slog.Logger
	Sender Sender
}

// Handle renders the verification message and hands it to the SMTP
// collaborator. A payload that cannot be decoded will never decode, so it
// is dropped rather than retried.
func (j VerificationEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload VerificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if j.Logger != nil {
		j.Logger.Info("verification email",
			slog.String("to", payload.Email),
			slog.Int64("principal", payload.PrincipalID),
			slog.Int64("expires_at", payload.ExpiresAt),
		)
	}
	if j.Sender == nil {
		return nil
	}
	return j.Sender.Send(payload.Email, "Verify your email address", renderVerificationBody(payload))
}

func renderVerificationBody(p VerificationEmailPayload) string {
	return "Hello,\n\n" +
		"Confirm this address by submitting the verification below. It expires at " +
		time.Unix(p.ExpiresAt, 0).UTC().Format(time.RFC3339) + ".\n\n" +
		fmt.Sprintf("principal_id: %d\ncontent_hash: %s\nexpires_at: %d\nsignature: %s\n",
			p.PrincipalID, p.ContentHash, p.ExpiresAt, p.Signature) +
		"\nIf you did not create this account you can ignore this message.\n"
}
