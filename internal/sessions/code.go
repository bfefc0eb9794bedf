package sessions

import (
	"context"
	"math/rand/v2"

	"github.com/quizdeck/backend/internal/models"
)

// codeAlphabet excludes visually similar characters (0/O, 1/I/L are out).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the join code length.
const CodeLength = 4

// maxCodeAttempts bounds worst-case latency of unique-code generation; past
// it GenerateUniqueCode fails instead of looping forever.
const maxCodeAttempts = 10

// GenerateCode returns a random join code drawn uniformly from the alphabet.
func GenerateCode() string {
	buf := make([]byte, CodeLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(buf)
}

// GenerateUniqueCode generates codes until one passes the existence check,
// making at most maxCodeAttempts attempts before returning
// models.ErrCodeGenerationExhausted. The predicate is a best-effort
// pre-check; the store's uniqueness constraint remains the arbiter.
func GenerateUniqueCode(ctx context.Context, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := GenerateCode()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", models.ErrCodeGenerationExhausted
}
