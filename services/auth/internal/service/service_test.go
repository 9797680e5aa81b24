package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
	"github.com/Skotchmaster/auth_service/services/auth/internal/repo"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
)

const testPassword = "Abcd123!"

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type mailed struct {
	kind  string
	email string
	token string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []mailed
}

func (n *recordingNotifier) record(kind string, u *models.User, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, mailed{kind: kind, email: u.Email, token: token})
}

func (n *recordingNotifier) AccountCreated(_ context.Context, u *models.User, token string) {
	n.record("account_created", u, token)
}

func (n *recordingNotifier) PasswordResetRequested(_ context.Context, u *models.User, token string) {
	n.record("password_reset", u, token)
}

func (n *recordingNotifier) PasswordChanged(_ context.Context, u *models.User) {
	n.record("password_changed", u, "")
}

func (n *recordingNotifier) last(kind string) (mailed, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].kind == kind {
			return n.sent[i], true
		}
	}
	return mailed{}, false
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	repo      *repo.GormRepo
	clock     *fakeClock
	codec     *tokens.Codec
	mail      *recordingNotifier
	events    *recordingPublisher
	users     *Users
	passwords *Passwords
	verifier  *Verifier
	auth      *Authority
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(ctx))

	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	codec := tokens.NewCodec(tokens.Config{
		AccessSecret:  []byte("test-access-secret-0123456789abcdef"),
		RefreshSecret: []byte("test-refresh-secret-0123456789abcdef"),
	}).WithClock(clock.now)

	mail := &recordingNotifier{}
	pub := &recordingPublisher{}
	users := &Users{
		Store:    r.Users(),
		Sessions: r.Sessions(),
		Tokens:   r.Tokens(),
		Notifier: mail,
		Events:   pub,

		Integrations: r.Integrations(),
	}
	return &testEnv{
		repo:   r,
		clock:  clock,
		codec:  codec,
		mail:   mail,
		events: pub,
		users:  users,
		passwords: &Passwords{
			Users:    r.Users(),
			Sessions: r.Sessions(),
			Tokens:   r.Tokens(),
			Notifier: mail,
			Events:   pub,
		},
		verifier: &Verifier{Users: r.Users()},
		auth: &Authority{
			Users:    r.Users(),
			Accounts: users,
			Sessions: r.Sessions(),
			Codec:    codec,
			Events:   pub,
		},
	}
}

func (e *testEnv) register(t *testing.T, email, username string) *Session {
	t.Helper()
	s, err := e.auth.Register(context.Background(), NewUser{
		Email:    email,
		Username: username,
		Password: testPassword,
	}, ClientContext{UserAgent: "test-agent"})
	require.NoError(t, err)
	return s
}

func (e *testEnv) lineages(t *testing.T, userID uint) []models.RefreshToken {
	t.Helper()
	recs, err := e.repo.Sessions().ListForUser(context.Background(), userID)
	require.NoError(t, err)
	return recs
}
