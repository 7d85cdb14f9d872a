package utils

import (
	"crypto/rand"

	"github.com/gofrs/uuid"
)

const recordIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateRecordID returns a short random identifier over a 62-symbol
// alphabet. 8 characters give ~2.8e12 combinations, so collisions are rare
// but possible; callers must detect them via the backend's set-if-absent
// write and retry.
func GenerateRecordID() (string, error) {
	buf := make([]byte, RECORD_ID_LENGTH)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = recordIDAlphabet[int(b)%len(recordIDAlphabet)]
	}
	return string(buf), nil
}

// GenerateFallbackID generates a "github.com/gofrs/uuid" UUID. Used when the
// short-id retry budget is exhausted; a v4 UUID is long enough to be treated
// as collision-free.
func GenerateFallbackID() (string, error) {
	u2, err := uuid.NewV4()
	return u2.String(), err
}
