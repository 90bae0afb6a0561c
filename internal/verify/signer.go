package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Signer computes and checks capability signatures with a process-wide
// secret loaded once at startup. The secret is never logged.
type Signer struct {
	secret []byte
}

// NewSigner returns a Signer using the provided secret key.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign computes the HMAC-SHA256 signature over the exact capability tuple.
// ExpiresAt participates as a unix timestamp so the signature survives
// serialization round-trips.
func (s *Signer) Sign(principalID int64, contentHash string, expiresAt int64) string {
	mac := hmac.New(sha256.New, s.secret)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(principalID))
	_, _ = mac.Write(buf)
	_, _ = mac.Write([]byte{'|'})
	_, _ = mac.Write([]byte(contentHash))
	_, _ = mac.Write([]byte{'|'})
	binary.BigEndian.PutUint64(buf, uint64(expiresAt))
	_, _ = mac.Write(buf)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares in constant time.
func (s *Signer) Verify(principalID int64, contentHash string, expiresAt int64, signature string) bool {
	expected := s.Sign(principalID, contentHash, expiresAt)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ContentHash derives the stable hash of a principal's verifiable identity
// attribute. SHA-256 rather than a legacy digest: the hash must stay
// collision-resistant because a collision would let a capability issued for
// one address verify another.
func ContentHash(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}
