// Package verify manages the email-verification lifecycle: it issues
// signed, time-bound capabilities and redeems them to move a principal from
// unverified to verified. No server-side record of issuance is kept; the
// capability is self-authenticating.
package verify

import (
	"errors"
	"time"
)

// Capability proves the right to mark a principal verified. The signature
// is recomputable server-side from (PrincipalID, ContentHash, ExpiresAt)
// with a dedicated secret; any mismatch or expiry is an unconditional
// rejection.
type Capability struct {
	PrincipalID int64     `json:"principal_id"`
	ContentHash string    `json:"content_hash"`
	ExpiresAt   time.Time `json:"expires_at"`
	Signature   string    `json:"signature"`
}

// Redemption rejection reasons, in check order.
var (
	ErrExpired          = errors.New("verify: capability expired")
	ErrInvalidSignature = errors.New("verify: invalid signature")
	ErrStaleCapability  = errors.New("verify: capability no longer matches principal")
	ErrUnavailable      = errors.New("verify: store unavailable")
)

// Rejected reports whether err is one of the capability rejection reasons.
func Rejected(err error) bool {
	return errors.Is(err, ErrExpired) || errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrStaleCapability)
}
