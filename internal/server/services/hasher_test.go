package services

import "testing"

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher()

	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("password stored in plaintext")
	}
	if !h.Verify(hash, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if h.Verify(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestBcryptHasher_VerifyGarbage(t *testing.T) {
	h := NewBcryptHasher()
	if h.Verify("not-a-bcrypt-hash", "pw") {
		t.Fatal("garbage hash accepted")
	}
}
