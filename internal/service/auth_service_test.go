package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ne3mer/retro/internal/domain"
	"github.com/ne3mer/retro/internal/repository/postgres"
	"github.com/ne3mer/retro/internal/service"
	"github.com/ne3mer/retro/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Tokens(t *testing.T) {
	cfg := testutil.TestConfig()
	authService := service.NewAuthService(nil, cfg)

	user := &domain.User{
		ID:       uuid.New(),
		Username: "tokenuser",
	}

	t.Run("issue and verify", func(t *testing.T) {
		token, err := authService.GenerateToken(user)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		identity, err := authService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.UserID)
		assert.Equal(t, "tokenuser", identity.Username)
	})

	t.Run("verification is idempotent", func(t *testing.T) {
		token, err := authService.GenerateToken(user)
		require.NoError(t, err)

		first, err := authService.ValidateToken(token)
		require.NoError(t, err)
		second, err := authService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expiredCfg := testutil.TestConfig()
		expiredCfg.JWTExpirationHours = -1
		expiredService := service.NewAuthService(nil, expiredCfg)

		token, err := expiredService.GenerateToken(user)
		require.NoError(t, err)

		_, err = expiredService.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrTokenExpired)
	})

	t.Run("token signed with another secret is invalid", func(t *testing.T) {
		otherCfg := testutil.TestConfig()
		otherCfg.JWTSecret = "a-completely-different-secret"
		otherService := service.NewAuthService(nil, otherCfg)

		token, err := otherService.GenerateToken(user)
		require.NoError(t, err)

		_, err = authService.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrTokenInvalid)
	})

	t.Run("garbage token is invalid", func(t *testing.T) {
		_, err := authService.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, service.ErrTokenInvalid)
	})
}

func TestAuthService_Signup(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	authService := service.NewAuthService(repos.User, cfg)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   service.SignupInput
		setup   func()
		wantErr error
		check   func(*testing.T, *service.AuthResult)
	}{
		{
			name: "successful signup",
			input: service.SignupInput{
				Username: "newuser",
				Email:    "NewUser@Example.com",
				Password: "password123",
				Name:     "New User",
			},
			check: func(t *testing.T, result *service.AuthResult) {
				assert.Equal(t, "newuser", result.User.Username)
				assert.Equal(t, "newuser@example.com", result.User.Email, "email must be lowercased")
				assert.NotEmpty(t, result.Token)
				assert.NotEqual(t, "password123", result.User.PasswordHash)
				assert.Empty(t, result.User.FavoriteIDs())
			},
		},
		{
			name: "duplicate username",
			input: service.SignupInput{
				Username: "existinguser",
				Email:    "fresh@example.com",
				Password: "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithUsername("existinguser").
					WithEmail("existing@example.com").
					Build(t, testDB.DB)
			},
			wantErr: service.ErrUserExists,
		},
		{
			name: "duplicate email",
			input: service.SignupInput{
				Username: "freshuser",
				Email:    "existing@example.com",
				Password: "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithUsername("existinguser").
					WithEmail("existing@example.com").
					Build(t, testDB.DB)
			},
			wantErr: service.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB.Truncate(t)

			if tt.setup != nil {
				tt.setup()
			}

			result, err := authService.Signup(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, result)
			}
		})
	}
}

// Two simultaneous signups for the same username can both pass the
// availability lookups; the loser's insert must still surface as a
// conflict, not an internal error.
func TestAuthService_ConcurrentSignupConflict(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	authService := service.NewAuthService(repos.User, cfg)
	ctx := context.Background()

	input := func(email string) service.SignupInput {
		return service.SignupInput{
			Username: "raceuser",
			Email:    email,
			Password: "password123",
			Name:     "Race User",
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	emails := []string{"race1@example.com", "race2@example.com"}
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = authService.Signup(ctx, input(emails[i]))
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrUserExists):
			conflicts++
		default:
			t.Fatalf("unexpected signup error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestAuthService_Login(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	authService := service.NewAuthService(repos.User, cfg)
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().
		WithUsername("loginuser").
		WithPassword("correctpassword").
		Build(t, testDB.DB)

	t.Run("successful login", func(t *testing.T) {
		result, err := authService.Login(ctx, service.LoginInput{
			Username: user.Username,
			Password: rawPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, user.Username, result.User.Username)
		assert.NotEmpty(t, result.Token)

		identity, err := authService.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := authService.Login(ctx, service.LoginInput{
			Username: user.Username,
			Password: "wrongpassword",
		})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := authService.Login(ctx, service.LoginInput{
			Username: "nonexistent",
			Password: "anypassword",
		})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}
