package amazonpay

import (
	"strings"

	"github.com/google/uuid"
)

// IdempotencyKey deduplicates a logical mutating attempt at the processor.
// A fresh key is generated per attempt and reused across retries of that
// attempt.
type IdempotencyKey string

// NewIdempotencyKey returns a compact random token. The processor rejects
// keys longer than 32 characters, so the uuid is stripped of dashes.
func NewIdempotencyKey() IdempotencyKey {
	return IdempotencyKey(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
