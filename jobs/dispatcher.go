package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/devport-app/devport/internal/verify"
)

// Dispatcher enqueues delivery tasks from the request path. It satisfies
// verify.Dispatcher.
type Dispatcher struct {
	client *asynq.Client
}

// NewDispatcher constructs a Dispatcher on the given Redis options.
func NewDispatcher(opts asynq.RedisClientOpt) *Dispatcher {
	return &Dispatcher{client: asynq.NewClient(opts)}
}

// DispatchVerification enqueues the capability for out-of-band delivery.
func (d *Dispatcher) DispatchVerification(ctx context.Context, email string, capability verify.Capability) error {
	task, err := NewVerificationEmailTask(VerificationEmailPayload{
		Email:       email,
		PrincipalID: capability.PrincipalID,
		ContentHash: capability.ContentHash,
		ExpiresAt:   capability.ExpiresAt.Unix(),
		Signature:   capability.Signature,
	})
	if err != nil {
		return fmt.Errorf("jobs: build verification task: %w", err)
	}
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue verification task: %w", err)
	}
	return nil
}

// Close releases the underlying asynq client.
func (d *Dispatcher) Close() error {
	return d.client.Close()
}

var _ verify.Dispatcher = (*Dispatcher)(nil)
