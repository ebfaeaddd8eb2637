package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// cheap params keep the suite fast
var testParams = Argon2Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestPasswordHasher_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}
	if err := h.Compare(hash, "correct horse"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	a, _ := h.Hash("pw")
	b, _ := h.Hash("pw")
	if a == b {
		t.Fatalf("expected different hashes for same password")
	}
}

func TestPasswordHasher_LongPasswordNotTruncated(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	long := strings.Repeat("a", 100)
	hash, err := h.Hash(long)
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if err := h.Compare(hash, long[:72]); err == nil {
		t.Fatalf("prefix of long password must not match")
	}
}

func TestPasswordHasher_VerifiesLegacyBcrypt(t *testing.T) {
	t.Parallel()

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	h := NewPasswordHasher(testParams)
	if err := h.Compare(string(legacy), "legacy-pw"); err != nil {
		t.Fatalf("expected bcrypt match, got %v", err)
	}
	if err := h.Compare(string(legacy), "nope"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if !h.NeedsRehash(string(legacy)) {
		t.Fatalf("bcrypt hashes should need rehash")
	}
}

func TestPasswordHasher_UnknownSchemeFails(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	for _, stored := range []string{"plaintext", "", "$1$abc$def", "$pbkdf2-sha256$x"} {
		if err := h.Compare(stored, stored); !errors.Is(err, ErrUnknownScheme) {
			t.Fatalf("stored=%q: expected unknown scheme, got %v", stored, err)
		}
	}
}

func TestPasswordHasher_MalformedArgonFails(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	cases := []string{
		"$argon2id$v=19$m=1024,t=1,p=1$onlysalt",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
	}
	for _, c := range cases {
		if err := h.Compare(c, "pw"); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("hash=%q: expected malformed, got %v", c, err)
		}
	}
}

func TestPasswordHasher_NeedsRehash_WeakerArgon(t *testing.T) {
	t.Parallel()

	weak := NewPasswordHasher(testParams)
	hash, _ := weak.Hash("pw")

	strong := NewPasswordHasher(Argon2Params{Memory: 2048, Time: 2, Threads: 1, SaltLen: 16, KeyLen: 32})
	if !strong.NeedsRehash(hash) {
		t.Fatalf("expected rehash for weaker params")
	}
	if weak.NeedsRehash(hash) {
		t.Fatalf("same params should not need rehash")
	}
}
