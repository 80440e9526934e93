package encryption

import (
	"strings"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	svc, err := NewService(key)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestEncryptDecrypt(t *testing.T) {
	svc := newTestService(t)

	sealed, err := svc.Encrypt("shpat_0123456789abcdef")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if strings.Contains(sealed, "shpat_") {
		t.Fatalf("ciphertext leaks the token: %s", sealed)
	}
	again, _ := svc.Encrypt("shpat_0123456789abcdef")
	if again == sealed {
		t.Error("encryption is deterministic")
	}

	plain, err := svc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plain != "shpat_0123456789abcdef" {
		t.Errorf("Decrypt() = %q", plain)
	}
}

func TestDecryptFailures(t *testing.T) {
	svc := newTestService(t)
	other := newTestService(t)
	sealed, err := other.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"other key", sealed},
		{"not base64", "!!!"},
		{"not age", "aGVsbG8="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Decrypt(tt.ciphertext); err == nil {
				t.Error("Decrypt() succeeded")
			}
		})
	}
}

func TestNewServiceRejectsBadKey(t *testing.T) {
	for _, key := range []string{"", "hunter2", "age1qyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqszqgpqyqs3290gq"} {
		if _, err := NewService(key); err == nil {
			t.Errorf("NewService(%q) accepted", key)
		}
	}
}
