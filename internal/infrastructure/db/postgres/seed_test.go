package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

type fakeSeederHasher struct {
	err error
}

func (h *fakeSeederHasher) Hash(pw string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "HASH(" + pw + ")", nil
}

type fakeSeederRepo struct {
	mu      sync.Mutex
	created []domain.User
	err     error
}

func (r *fakeSeederRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.User{}, r.err
	}
	r.created = append(r.created, u)
	return u, nil
}

func TestSeedAdmin_CreatesVerifiedAdmin(t *testing.T) {
	t.Parallel()

	repo := &fakeSeederRepo{}
	ok := SeedAdmin(context.Background(), repo, &fakeSeederHasher{}, " Root@KMUTT.ac.th ", "pw")
	if !ok {
		t.Fatalf("expected seed to run")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 user, got %d", len(repo.created))
	}
	u := repo.created[0]
	if u.Email != "root@kmutt.ac.th" || u.Name != "root" {
		t.Fatalf("unexpected identity: %+v", u)
	}
	if u.Role != "admin" || !u.IsVerified || u.PasswordHash != "HASH(pw)" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestSeedAdmin_SkipsWithoutCredentials(t *testing.T) {
	t.Parallel()

	repo := &fakeSeederRepo{}
	if SeedAdmin(context.Background(), repo, &fakeSeederHasher{}, "", "pw") {
		t.Fatalf("expected skip without email")
	}
	if SeedAdmin(context.Background(), repo, &fakeSeederHasher{}, "a@b.c", "") {
		t.Fatalf("expected skip without password")
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected nothing created")
	}
}

func TestSeedAdmin_DuplicateOrHashFailure_NotFatal(t *testing.T) {
	t.Parallel()

	dup := &fakeSeederRepo{err: domain.ErrEmailAlreadyExists()}
	if SeedAdmin(context.Background(), dup, &fakeSeederHasher{}, "a@b.c", "pw") {
		t.Fatalf("duplicate should report false")
	}

	repo := &fakeSeederRepo{}
	if SeedAdmin(context.Background(), repo, &fakeSeederHasher{err: errors.New("x")}, "a@b.c", "pw") {
		t.Fatalf("hash failure should report false")
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected nothing created")
	}
}
