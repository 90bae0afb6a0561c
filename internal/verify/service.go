package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/devport-app/devport/internal/auth"
)

// Repository is the narrow slice of the credential store the lifecycle
// manager touches.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*auth.Principal, error)
	SetVerified(ctx context.Context, id int64, at time.Time) error
}

// Dispatcher hands a capability to the out-of-band delivery collaborator.
// The core never sends anything itself.
type Dispatcher interface {
	DispatchVerification(ctx context.Context, email string, capability Capability) error
}

// storeTimeout bounds credential store round-trips during redemption.
const storeTimeout = 2 * time.Second

// Service issues and redeems verification capabilities.
type Service struct {
	repo       Repository
	signer     *Signer
	dispatcher Dispatcher
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a Service. dispatcher may be nil when delivery is
// wired elsewhere (tests).
func NewService(repo Repository, signer *Signer, dispatcher Dispatcher, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		signer:     signer,
		dispatcher: dispatcher,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue computes a capability for the principal's current email. It does
// not mutate principal state.
func (s *Service) Issue(principal *auth.Principal) Capability {
	contentHash := ContentHash(principal.Email)
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second).UTC()
	return Capability{
		PrincipalID: principal.ID,
		ContentHash: contentHash,
		ExpiresAt:   expiresAt,
		Signature:   s.signer.Sign(principal.ID, contentHash, expiresAt.Unix()),
	}
}

// IssueAndDispatch issues a capability and hands it to the delivery
// collaborator. Satisfies auth.VerificationIssuer.
func (s *Service) IssueAndDispatch(ctx context.Context, principal *auth.Principal) error {
	capability := s.Issue(principal)
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.DispatchVerification(ctx, principal.Email, capability)
}

// Redeem validates a presented capability and transitions the principal to
// verified. Checks short-circuit in a fixed order: expiry, signature,
// staleness against the current email, then the idempotent state check.
// Re-redeeming an already verified principal succeeds without mutation.
func (s *Service) Redeem(ctx context.Context, capability Capability) error {
	now := s.now()
	if capability.ExpiresAt.Before(now) {
		return ErrExpired
	}
	if !s.signer.Verify(capability.PrincipalID, capability.ContentHash, capability.ExpiresAt.Unix(), capability.Signature) {
		return ErrInvalidSignature
	}

	lookupCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	principal, err := s.repo.FindByID(lookupCtx, capability.PrincipalID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			// A validly signed capability for a principal that no longer
			// exists behaves like one outlived by an email change.
			return ErrStaleCapability
		}
		if s.logger != nil {
			s.logger.Error("verify lookup", slog.Int64("principal", capability.PrincipalID), slog.Any("error", err))
		}
		return ErrUnavailable
	}

	if ContentHash(principal.Email) != capability.ContentHash {
		return ErrStaleCapability
	}

	if principal.Verified() {
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.repo.SetVerified(writeCtx, principal.ID, now.UTC()); err != nil {
		if s.logger != nil {
			s.logger.Error("verify persist", slog.Int64("principal", principal.ID), slog.Any("error", err))
		}
		return ErrUnavailable
	}
	return nil
}
