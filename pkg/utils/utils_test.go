package utils

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "secret"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Errorf("Expected password check to pass")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Errorf("Expected password check to fail")
	}
}

func TestJWT(t *testing.T) {
	secret := "supersecret"
	userID := "123"
	role := "user"

	token, err := GenerateToken(userID, role, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected UserID %s, got %s", userID, claims.UserID)
	}

	if claims.Role != role {
		t.Errorf("Expected Role %s, got %s", role, claims.Role)
	}

	_, err = ValidateToken(token, "wrongsecret")
	if err == nil {
		t.Errorf("Expected error with wrong secret")
	}
}

func TestFullWidthLen(t *testing.T) {
	cases := []struct {
		input string
		units int
	}{
		{"", 0},
		{"a", 1},
		{"abc", 3},
		{"あ", 2},
		{"あいう", 6},
		{"aあ", 3},
		{"１２３", 6}, // full-width digits
		{"ｱｲｳ", 3},   // half-width katakana
	}

	for _, c := range cases {
		if got := FullWidthLen(c.input); got != c.units {
			t.Errorf("FullWidthLen(%q): expected %d, got %d", c.input, c.units, got)
		}
	}
}

func TestClipFullWidthStopsAtRuneBoundary(t *testing.T) {
	input := strings.Repeat("あ", 3)
	if got := ClipFullWidth(input, 2); got != "ああ" {
		t.Errorf("expected clip to 2 full-width characters, got %q", got)
	}

	// A trailing half-width character fills the last half unit.
	if got := ClipFullWidth("aあa", 2); got != "aあa" {
		t.Errorf("expected %q, got %q", "aあa", got)
	}
	if got := ClipFullWidth("aああ", 2); got != "aあ" {
		t.Errorf("expected %q, got %q", "aあ", got)
	}
}

func TestExceedsFullWidth(t *testing.T) {
	if ExceedsFullWidth(strings.Repeat("あ", 10), 10) {
		t.Error("content at the limit must not exceed")
	}
	if !ExceedsFullWidth(strings.Repeat("あ", 11), 10) {
		t.Error("content past the limit must exceed")
	}
	if ExceedsFullWidth(strings.Repeat("a", 20), 10) {
		t.Error("20 half-width characters equal 10 full-width, must not exceed")
	}
}
