package auth

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

// ConfirmationCodeTTL bounds how long an issued code can be exchanged for a token.
const ConfirmationCodeTTL = 24 * time.Hour

func GenerateConfirmationCode() string {
	return uuid.NewString()
}

// CheckConfirmationCode reports whether the presented code matches the stored
// one and was issued within the TTL. A cleared stored code never matches, which
// is what makes codes single-use after a successful exchange.
func CheckConfirmationCode(stored string, issuedAt *time.Time, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}

	if issuedAt == nil || time.Since(*issuedAt) > ConfirmationCodeTTL {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
