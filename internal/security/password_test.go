package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")

	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "s3cret" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := CheckPassword(hash, "s3cret"); err != nil {
		t.Fatalf("CheckPassword rejected the right password: %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("CheckPassword accepted a wrong password")
	}
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPassword("same-input")

	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	h2, err := HashPassword("same-input")

	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same input should differ (random salt)")
	}
}
