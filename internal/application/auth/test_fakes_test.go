package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type roleChange struct {
	id   int64
	role string
}

type pwdChange struct {
	id   int64
	hash string
}

type fakeUserRepo struct {
	mu sync.Mutex

	nextID int64
	byID   map[int64]domain.User

	// injected errors (if set, method returns error)
	getByIDErr     error
	getByEmailErr  error
	getByTokenErr  error
	createErr      error
	updateNameErr  error
	updatePwdErr   error
	setTokenErr    error
	markErr        error
	setRoleErr     error
	countByRoleErr error
	beginErr       error

	// record calls
	setRoles   []roleChange
	updatedPwd []pwdChange
	txCommits  int
	txRollback int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[int64]domain.User{}}
}

// put stores u directly, assigning an id when missing.
func (f *fakeUserRepo) put(u domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	} else if u.ID > f.nextID {
		f.nextID = u.ID
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUserRepo) get(id int64) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByVerificationToken(ctx context.Context, tokenHash string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByTokenErr != nil {
		return domain.User{}, f.getByTokenErr
	}
	for _, u := range f.byID {
		if tokenHash != "" && (u.VerificationToken == tokenHash || u.ConsumedVerificationToken == tokenHash) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) UpdateName(ctx context.Context, userID int64, name string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateNameErr != nil {
		return domain.User{}, f.updateNameErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u.Name = name
	f.byID[userID] = u
	return u, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updatePwdErr != nil {
		return f.updatePwdErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.PasswordHash = newHash
	f.byID[userID] = u
	f.updatedPwd = append(f.updatedPwd, pwdChange{id: userID, hash: newHash})
	return nil
}

func (f *fakeUserRepo) SetVerificationToken(ctx context.Context, userID int64, tokenHash string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setTokenErr != nil {
		return f.setTokenErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.VerificationToken = tokenHash
	u.VerificationSentAt = &sentAt
	f.byID[userID] = u
	return nil
}

func (f *fakeUserRepo) MarkVerified(ctx context.Context, userID int64, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return false, f.markErr
	}
	u, ok := f.byID[userID]
	if !ok || u.IsVerified || u.VerificationToken != tokenHash {
		return false, nil
	}
	u.IsVerified = true
	u.VerificationToken = ""
	u.VerificationSentAt = nil
	u.ConsumedVerificationToken = tokenHash
	f.byID[userID] = u
	return true, nil
}

func (f *fakeUserRepo) SetRole(ctx context.Context, userID int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setRoleErr != nil {
		return f.setRoleErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.Role = role
	f.byID[userID] = u
	f.setRoles = append(f.setRoles, roleChange{id: userID, role: role})
	return nil
}

func (f *fakeUserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countByRoleErr != nil {
		return 0, f.countByRoleErr
	}
	cnt := 0
	for _, u := range f.byID {
		if u.Role == role {
			cnt++
		}
	}
	return cnt, nil
}

// WithTx snapshots state and restores it when fn fails.
func (f *fakeUserRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx UserRepo) error) error {
	f.mu.Lock()
	if f.beginErr != nil {
		f.mu.Unlock()
		return f.beginErr
	}
	snapshot := make(map[int64]domain.User, len(f.byID))
	for k, v := range f.byID {
		snapshot[k] = v
	}
	nextID := f.nextID
	f.mu.Unlock()

	if err := fn(ctx, f); err != nil {
		f.mu.Lock()
		f.byID = snapshot
		f.nextID = nextID
		f.txRollback++
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.txCommits++
	f.mu.Unlock()
	return nil
}

type fakeHasher struct {
	hashFn      func(pw string) (string, error)
	compareFn   func(hash, pw string) error
	needsRehash func(hash string) bool
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

func (h *fakeHasher) NeedsRehash(hash string) bool {
	if h.needsRehash != nil {
		return h.needsRehash(hash)
	}
	return false
}

type fakeSigner struct {
	signFn   func(userID int64, role string, ttl time.Duration) (string, error)
	verifyFn func(token string) (TokenClaims, error)
}

func (s *fakeSigner) SignAccessToken(userID int64, role string, ttl time.Duration) (string, error) {
	if s.signFn != nil {
		return s.signFn(userID, role, ttl)
	}
	return fmt.Sprintf("jwt(%d,%s)", userID, role), nil
}

func (s *fakeSigner) VerifyAccessToken(token string) (TokenClaims, error) {
	if s.verifyFn != nil {
		return s.verifyFn(token)
	}
	return TokenClaims{}, domain.ErrTokenInvalid()
}

type sentMail struct {
	to, name, url string
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (m *fakeMailer) SendVerifyEmail(ctx context.Context, toEmail, name, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, name: name, url: url})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("expected a mail to be sent")
	}
	return m.sent[len(m.sent)-1]
}

/*
Service factory for tests
*/

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc    *Service
	users  *fakeUserRepo
	hasher *fakeHasher
	signer *fakeSigner
	mailer *fakeMailer
	clock  *testClock
	audits *[]auditEntry
}

const testVerifyBase = "https://api.test/auth/verify?token="

func newSvcForTest(t *testing.T) testEnv {
	t.Helper()

	env := testEnv{
		users:  newFakeUserRepo(),
		hasher: &fakeHasher{},
		signer: &fakeSigner{},
		mailer: &fakeMailer{},
		clock:  &testClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
		audits: &[]auditEntry{},
	}

	var mu sync.Mutex
	env.svc = NewService(env.users, env.hasher, env.signer, env.mailer, Config{
		AccessTTL:           time.Hour,
		VerifyTokenTTL:      24 * time.Hour,
		AllowedEmailDomains: []string{"gmail.com"},
		VerifyURL:           func(raw string) string { return testVerifyBase + raw },
	}).
		WithClock(env.clock.Now).
		WithAudit(func(action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			mu.Lock()
			*env.audits = append(*env.audits, auditEntry{action: action, fields: cp})
			mu.Unlock()
		})

	return env
}

/*
Small assertions
*/

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func lastAudit(audits *[]auditEntry) (auditEntry, bool) {
	if audits == nil || len(*audits) == 0 {
		return auditEntry{}, false
	}
	return (*audits)[len(*audits)-1], true
}

func requireAuditAction(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	e, ok := lastAudit(audits)
	if !ok {
		t.Fatalf("expected audit entry, got none")
	}
	if e.action != wantAction {
		t.Fatalf("expected audit action %q, got %q", wantAction, e.action)
	}
	return e
}

func requireAuditField(t *testing.T, e auditEntry, k, want string) {
	t.Helper()
	got := strings.TrimSpace(e.fields[k])
	if got != want {
		t.Fatalf("expected audit field %q=%q, got %q (all=%v)", k, want, got, e.fields)
	}
}

// rawTokenFromMail extracts the raw token from a mailed verify URL.
func rawTokenFromMail(t *testing.T, m sentMail) string {
	t.Helper()
	if !strings.HasPrefix(m.url, testVerifyBase) {
		t.Fatalf("unexpected verify url: %s", m.url)
	}
	return strings.TrimPrefix(m.url, testVerifyBase)
}
