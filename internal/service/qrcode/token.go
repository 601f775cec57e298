package qrcode

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	tokenPrefix  = "QR1."
	tokenEntropy = 32
)

// newToken returns an opaque token and the hash that is persisted for it.
func newToken() (string, []byte, error) {
	raw := make([]byte, tokenEntropy)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	token := tokenPrefix + base64.RawURLEncoding.EncodeToString(raw)
	return token, hashToken(token), nil
}

func hashToken(token string) []byte {
	sum := blake2b.Sum256([]byte(token))
	return sum[:]
}

// wellFormed rejects strings that could never have been issued, before touching storage.
func wellFormed(token string) bool {
	body, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil && len(raw) == tokenEntropy
}
