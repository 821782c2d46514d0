package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("abcdef", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "abcdef"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "abcdeg"); err == nil {
		t.Fatalf("wrong password accepted")
	}
}

func TestCheckPasswordLength(t *testing.T) {
	if err := CheckPasswordLength("abcde", 6); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := CheckPasswordLength("ñandú!", 6); err != nil {
		t.Fatalf("length counts characters, not bytes: %v", err)
	}
	if err := CheckPasswordLength(strings.Repeat("a", MaxPasswordBytes), 6); err != nil {
		t.Fatalf("72 bytes must be accepted: %v", err)
	}
	// 37 two-byte runes: short in characters, over the byte limit
	if err := CheckPasswordLength(strings.Repeat("ñ", 37), 6); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}
