package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := &GormRepo{DB: db}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func newUser(email, username string) *models.User {
	hash := "$2a$10$abcdefghijklmnopqrstuuSOMEHASHVALUEabcdefghijklmnopqrs"
	return &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
		IsActive:     true,
		AuthMethod:   domain.AuthMethodLocal,
	}
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	r := newTestRepo(t).Users()
	ctx := context.Background()

	u := newUser("A@X.com", "a")
	require.NoError(t, r.Create(ctx, u))
	require.NotZero(t, u.ID)
	require.NotEqual(t, uuid.Nil, u.UUID)
	assert.Equal(t, "a@x.com", u.Email)

	byEmail, err := r.FindByIdentifier(ctx, "a@X.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := r.FindByIdentifier(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byUUID, err := r.FindByUUID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byUUID.ID)

	_, err = r.FindByIdentifier(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = r.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrUserWithIdNotFound)
}

func TestUserRepo_CreateConflicts(t *testing.T) {
	r := newTestRepo(t).Users()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, newUser("a@x.com", "a")))

	err := r.Create(ctx, newUser("a@x.com", "b"))
	assert.ErrorIs(t, err, domain.ErrEmailInUse)

	err = r.Create(ctx, newUser("b@x.com", "a"))
	assert.ErrorIs(t, err, domain.ErrUsernameInUse)
}

func TestUserRepo_SoftDeleteFreesIdentity(t *testing.T) {
	r := newTestRepo(t).Users()
	ctx := context.Background()

	u := newUser("a@x.com", "a")
	require.NoError(t, r.Create(ctx, u))
	require.NoError(t, r.SoftDelete(ctx, u.ID))

	_, err := r.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserWithIdNotFound)

	require.NoError(t, r.Create(ctx, newUser("a@x.com", "a")))

	err = r.SoftDelete(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserWithIdNotFound)
}

func TestUserRepo_Mutations(t *testing.T) {
	r := newTestRepo(t).Users()
	ctx := context.Background()

	u := newUser("a@x.com", "a")
	require.NoError(t, r.Create(ctx, u))

	require.NoError(t, r.UpdatePasswordHash(ctx, u.ID, "new-hash"))
	require.NoError(t, r.MarkVerified(ctx, u.ID))
	require.NoError(t, r.SetActive(ctx, u.ID, false))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "new-hash", *got.PasswordHash)
	assert.True(t, got.IsVerified)
	assert.False(t, got.IsActive)

	first, locale := "Ann", "fr_CA"
	got, err = r.UpdateProfile(ctx, u.ID, ProfileUpdate{FirstName: &first, Locale: &locale})
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.FirstName)
	assert.Equal(t, "fr_CA", got.Locale)

	last := "Other"
	require.NoError(t, r.LinkGoogle(ctx, got, "g-123", ProfileUpdate{FirstName: &last, LastName: &last}))
	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.GoogleID)
	assert.Equal(t, "g-123", *got.GoogleID)
	assert.Equal(t, "Ann", got.FirstName)
	assert.Equal(t, "Other", got.LastName)

	err = r.UpdatePasswordHash(ctx, 9999, "x")
	assert.ErrorIs(t, err, domain.ErrUserWithIdNotFound)
}

func TestRefreshRepo_Lifecycle(t *testing.T) {
	gr := newTestRepo(t)
	users, store := gr.Users(), gr.Sessions()
	ctx := context.Background()

	alice := newUser("alice@x.com", "alice")
	bob := newUser("bob@x.com", "bob")
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	rec, err := store.Create(ctx, alice.ID, "token-1", "ua-1")
	require.NoError(t, err)
	assert.NotEqual(t, "token-1", rec.Token)

	found, err := store.FindActive(ctx, "token-1", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)

	_, err = store.FindActive(ctx, "token-1", bob.ID)
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	_, err = store.FindActive(ctx, "", alice.ID)
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	updated, err := store.UpdateTokenValue(ctx, rec.ID, "token-2", "ua-2")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, "ua-2", updated.UserAgent)

	_, err = store.FindActive(ctx, "token-1", alice.ID)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
	_, err = store.FindActive(ctx, "token-2", alice.ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteByTokenValue(ctx, "token-2"))
	_, err = store.FindActive(ctx, "token-2", alice.ID)
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	_, err = store.UpdateTokenValue(ctx, rec.ID, "token-3", "ua")
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	require.NoError(t, store.DeleteByTokenValue(ctx, ""))
}

func TestRefreshRepo_DeleteAllForUser(t *testing.T) {
	gr := newTestRepo(t)
	users, store := gr.Users(), gr.Sessions()
	ctx := context.Background()

	alice := newUser("alice@x.com", "alice")
	bob := newUser("bob@x.com", "bob")
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	for _, tok := range []string{"a1", "a2", "a3"} {
		_, err := store.Create(ctx, alice.ID, tok, "ua")
		require.NoError(t, err)
	}
	_, err := store.Create(ctx, bob.ID, "b1", "ua")
	require.NoError(t, err)

	require.NoError(t, store.DeleteAllForUser(ctx, alice.ID))

	recs, err := store.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = store.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRefreshRepo_PurgeAndRetention(t *testing.T) {
	gr := newTestRepo(t)
	gr.RefreshRetention = 7 * 24 * time.Hour
	users, store := gr.Users(), gr.Sessions()
	ctx := context.Background()

	alice := newUser("alice@x.com", "alice")
	require.NoError(t, users.Create(ctx, alice))

	old, err := store.Create(ctx, alice.ID, "old", "ua")
	require.NoError(t, err)
	_, err = store.Create(ctx, alice.ID, "fresh", "ua")
	require.NoError(t, err)
	gone, err := store.Create(ctx, alice.ID, "logged-out", "ua")
	require.NoError(t, err)
	require.NoError(t, store.DeleteByTokenValue(ctx, "logged-out"))

	past := time.Now().UTC().Add(-8 * 24 * time.Hour)
	require.NoError(t, gr.DB.Unscoped().Model(&models.RefreshToken{}).
		Where("id IN ?", []uint{old.ID, gone.ID}).
		UpdateColumn("updated_at", past).Error)

	_, err = store.FindActive(ctx, "old", alice.ID)
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	n, err := store.PurgeExpired(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var left int64
	require.NoError(t, gr.DB.Unscoped().Model(&models.RefreshToken{}).Count(&left).Error)
	assert.EqualValues(t, 1, left)

	_, err = store.FindActive(ctx, "fresh", alice.ID)
	require.NoError(t, err)
}

func TestTokenRepo(t *testing.T) {
	gr := newTestRepo(t)
	users, toks := gr.Users(), gr.Tokens()
	ctx := context.Background()

	u := newUser("a@x.com", "a")
	require.NoError(t, users.Create(ctx, u))

	tok, err := toks.Create(ctx, u.ID, models.TokenChangePassword, 24*time.Hour)
	require.NoError(t, err)

	found, err := toks.FindByUUID(ctx, tok.UUID, models.TokenChangePassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.UserID)

	_, err = toks.FindByUUID(ctx, tok.UUID, models.TokenVerifyAccount)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	require.NoError(t, toks.Consume(ctx, tok.UUID))
	assert.ErrorIs(t, toks.Consume(ctx, tok.UUID), domain.ErrTokenNotFound)

	_, err = toks.Create(ctx, u.ID, models.TokenVerifyAccount, -time.Hour)
	require.NoError(t, err)
	_, err = toks.Create(ctx, u.ID, models.TokenVerifyAccount, time.Hour)
	require.NoError(t, err)

	n, err := toks.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, toks.DeleteForUser(ctx, u.ID, models.TokenVerifyAccount))
	var left int64
	require.NoError(t, gr.DB.Model(&models.Token{}).Count(&left).Error)
	assert.Zero(t, left)
}

func TestAuditRepo(t *testing.T) {
	gr := newTestRepo(t)
	audit := gr.Audit()
	ctx := context.Background()

	uid := uint(7)
	require.NoError(t, audit.Record(ctx, &models.AuditLog{
		IsSuccessful: true,
		Action:       models.AuditLogIn,
		Resource:     models.AuditResourceUser,
		UserID:       &uid,
	}))
	old := &models.AuditLog{
		IsSuccessful:  false,
		FailureReason: "unauthorized",
		Action:        models.AuditLogIn,
		Resource:      models.AuditResourceUser,
		UserID:        &uid,
		CreatedAt:     time.Now().UTC().Add(-30 * 24 * time.Hour),
	}
	require.NoError(t, audit.Record(ctx, old))

	logs, err := audit.ListForUser(ctx, uid, 0, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	n, err := audit.PurgeOlderThan(ctx, 28*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
