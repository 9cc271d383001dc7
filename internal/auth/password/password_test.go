package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("pw123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw123456" {
		t.Fatal("hash must not equal plaintext")
	}
	if !hasher.Verify("pw123456", hash) {
		t.Fatal("expected matching password to verify")
	}
	if hasher.Verify("pw1234567", hash) {
		t.Fatal("expected non-matching password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(bcrypt.MinCost)
	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for the same plaintext")
	}
}

func TestVerifyMalformedHashReturnsFalse(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(bcrypt.MinCost)
	if hasher.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatal("expected malformed hash to verify as false")
	}
	if hasher.Verify("anything", "") {
		t.Fatal("expected empty hash to verify as false")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(9999)
	hash, err := hasher.Hash("pw")
	if err != nil {
		t.Fatalf("hash with clamped cost: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("read cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost %d, got %d", bcrypt.DefaultCost, cost)
	}
}
