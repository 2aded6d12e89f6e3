package auth

import (
	"strings"
	"testing"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "simple", raw: "alice", want: "alice"},
		{name: "uppercase folds", raw: "ALICE", want: "alice"},
		{name: "surrounding space", raw: "  alice  ", want: "alice"},
		{name: "dots and dashes", raw: "a.l-i_c.e", want: "a.l-i_c.e"},
		{name: "empty", raw: "", wantErr: true},
		{name: "only spaces", raw: "   ", wantErr: true},
		{name: "inner space", raw: "al ice", wantErr: true},
		{name: "leading dot", raw: ".alice", wantErr: true},
		{name: "trailing dash", raw: "alice-", wantErr: true},
		{name: "symbols", raw: "alice!", wantErr: true},
		{name: "too long", raw: strings.Repeat("a", 33), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeUsername(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
	if err := ValidatePassword("password-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("password-123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "password-123" {
		t.Fatal("hash must not be the plaintext")
	}

	if !VerifyPassword(hash, "password-123") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatal("wrong password accepted")
	}
	if VerifyPassword("", "password-123") {
		t.Fatal("empty hash accepted")
	}

	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected error hashing a too-short password")
	}
}
