package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-backend/internal/domain"
	"github.com/taskhive/taskhive-backend/internal/repository/postgres"
	"github.com/taskhive/taskhive-backend/internal/testutil"
)

func TestSingleUseTokenRepository_Issue(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSingleUseTokenRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	first, err := repo.Issue(ctx, user.ID, domain.TokenPurposePasswordReset, time.Hour)
	require.NoError(t, err)
	assert.Len(t, first.Token, 64, "32 random bytes, hex encoded")
	assert.Equal(t, user.ID, first.UserID)

	verification, err := repo.Issue(ctx, user.ID, domain.TokenPurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	// A second reset token replaces the first; the verification token of
	// the other purpose is untouched.
	second, err := repo.Issue(ctx, user.ID, domain.TokenPurposePasswordReset, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = repo.Consume(ctx, first.Token, domain.TokenPurposePasswordReset)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid, "replaced token is dead")

	gotUser, err := repo.Consume(ctx, verification.Token, domain.TokenPurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUser)
}

func TestSingleUseTokenRepository_Consume(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSingleUseTokenRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	t.Run("valid token", func(t *testing.T) {
		token, err := repo.Issue(ctx, user.ID, domain.TokenPurposePasswordReset, time.Hour)
		require.NoError(t, err)

		gotUser, err := repo.Consume(ctx, token.Token, domain.TokenPurposePasswordReset)
		require.NoError(t, err)
		assert.Equal(t, user.ID, gotUser)

		// Never twice.
		_, err = repo.Consume(ctx, token.Token, domain.TokenPurposePasswordReset)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		token, err := repo.Issue(ctx, user.ID, domain.TokenPurposePasswordReset, time.Hour)
		require.NoError(t, err)

		_, err = repo.Consume(ctx, token.Token, domain.TokenPurposeEmailVerification)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := testutil.NewTokenBuilder(user.ID).
			WithExpiresAt(time.Now().Add(-time.Minute)).
			Build(t, testDB.DB)

		_, err := repo.Consume(ctx, expired.Token, domain.TokenPurposePasswordReset)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("already used token", func(t *testing.T) {
		used := testutil.NewTokenBuilder(user.ID).
			Used(time.Now().Add(-time.Minute)).
			Build(t, testDB.DB)

		_, err := repo.Consume(ctx, used.Token, domain.TokenPurposePasswordReset)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.Consume(ctx, "never-existed", domain.TokenPurposePasswordReset)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}

func TestSingleUseTokenRepository_ConcurrentConsume(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSingleUseTokenRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	token, err := repo.Issue(ctx, user.ID, domain.TokenPurposePasswordReset, time.Hour)
	require.NoError(t, err)

	const consumers = 10
	results := make(chan error, consumers)

	var wg sync.WaitGroup
	wg.Add(consumers)
	for i := 0; i < consumers; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.Consume(ctx, token.Token, domain.TokenPurposePasswordReset)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrTokenInvalid):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins, "exactly one consumer wins the race")
	assert.Equal(t, consumers-1, losses)
}
