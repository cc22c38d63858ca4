package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// TokenLength is the length of a subscription confirmation token.
	TokenLength = 25
	// tokenAlphabet is the case-sensitive alphanumeric token alphabet.
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// TokenGenerator produces unguessable subscription confirmation tokens.
// Construction probes the entropy source so an unavailable source fails the
// process at startup rather than on a per-request basis.
type TokenGenerator struct{}

// NewTokenGenerator verifies the entropy source and returns a generator.
func NewTokenGenerator() (*TokenGenerator, error) {
	probe := make([]byte, 1)
	if _, err := rand.Read(probe); err != nil {
		return nil, fmt.Errorf("entropy source unavailable: %w", err)
	}
	return &TokenGenerator{}, nil
}

// Generate returns a new 25-character case-sensitive alphanumeric token.
// Each position is drawn uniformly from the alphabet.
func (g *TokenGenerator) Generate() string {
	b := make([]byte, TokenLength)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		if err != nil {
			// The entropy source was verified at construction.
			panic(fmt.Sprintf("token generation failed: %v", err))
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b)
}
