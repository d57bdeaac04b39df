package postgres

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, keySize)
}

func TestSecretEncryptorRoundTrip(t *testing.T) {
	enc, err := NewSecretEncryptor(testKey())
	if err != nil {
		t.Fatalf("NewSecretEncryptor: %v", err)
	}

	blob, err := enc.EncryptString("ghp_sometoken")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	if blob[0] != secretVersion {
		t.Errorf("version byte = %d, want %d", blob[0], secretVersion)
	}

	got, err := enc.DecryptString(blob)
	if err != nil {
		t.Fatalf("DecryptString: %v", err)
	}
	if got != "ghp_sometoken" {
		t.Errorf("round trip = %q", got)
	}
}

func TestSecretEncryptorEmptyString(t *testing.T) {
	enc, _ := NewSecretEncryptor(testKey())

	blob, err := enc.EncryptString("")
	if err != nil || blob != nil {
		t.Errorf("empty string must encrypt to nil, got %v, %v", blob, err)
	}
	got, err := enc.DecryptString(nil)
	if err != nil || got != "" {
		t.Errorf("nil blob must decrypt to empty string, got %q, %v", got, err)
	}
}

func TestSecretEncryptorRejectsBadKey(t *testing.T) {
	_, err := NewSecretEncryptor([]byte("short"))
	if !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestSecretEncryptorWrongKeyFails(t *testing.T) {
	enc1, _ := NewSecretEncryptor(testKey())
	enc2, _ := NewSecretEncryptor(bytes.Repeat([]byte{0x99}, keySize))

	blob, err := enc1.EncryptString("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc2.DecryptString(blob); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSecretEncryptorRejectsBadBlobs(t *testing.T) {
	enc, _ := NewSecretEncryptor(testKey())

	if _, err := enc.DecryptString([]byte{secretVersion, 0x01}); !errors.Is(err, ErrInvalidBlobSize) {
		t.Errorf("expected ErrInvalidBlobSize, got %v", err)
	}

	blob, _ := enc.EncryptString("secret")
	blob[0] = 0x7f
	if _, err := enc.DecryptString(blob); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}
