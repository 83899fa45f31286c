package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	c, err := New(DeriveKey("a configured secret"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	plaintext := []byte("reader@example.com")
	a, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, _ := c.Encrypt(plaintext)
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext should differ")
	}
	if bytes.Contains(a, plaintext) {
		t.Error("ciphertext contains the plaintext")
	}

	got, err := c.Decrypt(a)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt = %q", got)
	}

	a[len(a)-1] ^= 0xff
	if _, err := c.Decrypt(a); err == nil {
		t.Error("expected tampered ciphertext to fail")
	}
	if _, err := c.Decrypt([]byte("short")); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}

	other, _ := New(DeriveKey("another secret"))
	if _, err := other.Decrypt(b); err == nil {
		t.Error("expected decryption under another key to fail")
	}
}

func TestNewKeyLength(t *testing.T) {
	if _, err := New([]byte("too short")); err == nil {
		t.Error("expected an error for a short key")
	}
}

func TestMAC(t *testing.T) {
	key := []byte("hmac-key")
	if MAC(key, "a@example.com") != MAC(key, "a@example.com") {
		t.Error("MAC must be deterministic")
	}
	if MAC(key, "a@example.com") == MAC(key, "b@example.com") {
		t.Error("different values must not share a MAC")
	}
	if MAC(key, "a@example.com") == MAC([]byte("other"), "a@example.com") {
		t.Error("MAC must depend on the key")
	}
	if len(MAC(key, "x")) != 64 {
		t.Error("expected a hex SHA-256 MAC")
	}
}
