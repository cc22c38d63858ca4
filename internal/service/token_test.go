package service

import (
	"strings"
	"testing"
)

func TestNewTokenGenerator(t *testing.T) {
	if _, err := NewTokenGenerator(); err != nil {
		t.Fatalf("expected generator construction to succeed, got %v", err)
	}
}

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	gen, err := NewTokenGenerator()
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	for i := 0; i < 100; i++ {
		token := gen.Generate()
		if len(token) != TokenLength {
			t.Fatalf("expected %d-character token, got %d (%q)", TokenLength, len(token), token)
		}
		for _, c := range token {
			if !strings.ContainsRune(tokenAlphabet, c) {
				t.Fatalf("token %q contains character %q outside the alphabet", token, c)
			}
		}
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	gen, err := NewTokenGenerator()
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	const trials = 5000
	seen := make(map[string]struct{}, trials)
	for i := 0; i < trials; i++ {
		token := gen.Generate()
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated after %d trials: %q", i, token)
		}
		seen[token] = struct{}{}
	}
}
