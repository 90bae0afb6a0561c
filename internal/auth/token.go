package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const credentialSecretBytes = 32

// MintCredential generates a new long-lived API credential. The raw value is
// returned to the caller exactly once; only its SHA-256 digest is ever
// persisted. The short uuid-derived prefix identifies the credential in
// logs without exposing the secret part.
func MintCredential() (raw, hash string, err error) {
	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	secret := make([]byte, credentialSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("auth: mint credential: %w", err)
	}
	raw = "dp_" + prefix + "_" + base64.RawURLEncoding.EncodeToString(secret)
	return raw, HashCredential(raw), nil
}

// HashCredential computes the hex SHA-256 digest used to store and look up
// credentials. Comparison happens by exact key match in the store, so no
// secret-dependent branching is involved.
func HashCredential(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CredentialPrefix extracts the identification prefix from a raw credential.
func CredentialPrefix(raw string) string {
	parts := strings.SplitN(raw, "_", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}
