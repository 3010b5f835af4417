package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-backend/internal/domain"
	"github.com/taskhive/taskhive-backend/internal/repository/postgres"
	"github.com/taskhive/taskhive-backend/internal/testutil"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	session := &domain.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		Token:        "session-token-1",
		UserAgent:    "agent",
		IPAddress:    "127.0.0.1",
		LastActiveAt: time.Now(),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(ctx, session))

	byToken, err := repo.GetByToken(ctx, "session-token-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, byToken.ID)
	assert.False(t, byToken.IsRevoked())

	_, err = repo.GetByToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_Revoke(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	session := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)

	changed, err := repo.Revoke(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	firstRevokedAt := *got.RevokedAt

	// Second revoke is a no-op and must not move the timestamp.
	changed, err = repo.Revoke(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err = repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, firstRevokedAt.UTC(), got.RevokedAt.UTC())
}

func TestSessionRepository_RevokeAllExcept(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	s1 := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	s2 := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	s3 := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	otherSession := testutil.NewSessionBuilder(other.ID).Build(t, testDB.DB)

	revoked, err := repo.RevokeAllExcept(ctx, user.ID, s1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, revoked)

	kept, err := repo.GetByID(ctx, s1.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.RevokedAt, "kept session must stay active")

	for _, id := range []uuid.UUID{s2.ID, s3.ID} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, got.RevokedAt)
	}

	unrelated, err := repo.GetByID(ctx, otherSession.ID)
	require.NoError(t, err)
	assert.Nil(t, unrelated.RevokedAt, "other users' sessions are untouched")
}

func TestSessionRepository_RevokeAllExcept_Nil(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	s1 := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	s2 := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)

	revoked, err := repo.RevokeAllExcept(ctx, user.ID, uuid.Nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, revoked)

	for _, id := range []uuid.UUID{s1.ID, s2.ID} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, got.RevokedAt)
	}
}

func TestSessionRepository_Touch(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	t.Run("active session", func(t *testing.T) {
		stale := time.Now().Add(-time.Hour)
		session := testutil.NewSessionBuilder(user.ID).WithLastActiveAt(stale).Build(t, testDB.DB)

		require.NoError(t, repo.Touch(ctx, session.ID))

		got, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, got.LastActiveAt.After(stale))
	})

	t.Run("revoked session", func(t *testing.T) {
		session := testutil.NewSessionBuilder(user.ID).Revoked(time.Now()).Build(t, testDB.DB)

		err := repo.Touch(ctx, session.ID)
		assert.ErrorIs(t, err, domain.ErrSessionRevoked)

		// Activity must not resurrect the session.
		got, getErr := repo.GetByID(ctx, session.ID)
		require.NoError(t, getErr)
		assert.NotNil(t, got.RevokedAt)
	})

	t.Run("missing session", func(t *testing.T) {
		err := repo.Touch(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestSessionRepository_PurgeOlderThan(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	stale := testutil.NewSessionBuilder(user.ID).
		WithLastActiveAt(time.Now().Add(-40 * 24 * time.Hour)).
		Build(t, testDB.DB)
	fresh := testutil.NewSessionBuilder(user.ID).Build(t, testDB.DB)
	// Revoked but recently active: inside the retention window, so kept.
	revokedFresh := testutil.NewSessionBuilder(user.ID).Revoked(time.Now()).Build(t, testDB.DB)

	cutoff := time.Now().AddDate(0, 0, -30)
	deleted, err := repo.PurgeOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = repo.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	for _, id := range []uuid.UUID{fresh.ID, revokedFresh.ID} {
		_, err := repo.GetByID(ctx, id)
		assert.NoError(t, err)
	}
}
