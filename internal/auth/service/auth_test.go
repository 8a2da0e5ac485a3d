package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/marketbase/platform/internal/auth/models"
	"github.com/marketbase/platform/internal/auth/repo"
	"github.com/marketbase/platform/internal/testutil"
	"github.com/marketbase/platform/pkg/tokens"
)

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	gdb := testutil.OpenDB(t, &models.User{})
	svc := &AuthService{
		Store:  &repo.GormRepo{DB: gdb},
		Tokens: &tokens.Codec{Secret: []byte("test-jwt-secret"), TTL: 15 * time.Minute},
	}
	return svc, gdb
}

func TestAuthService_Register_Success(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Token)
	assert.NotZero(t, res.User.ID)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, "Secret123", res.User.PasswordHash)

	claims, err := svc.Tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{name: "short username", username: "ab", email: "a@example.com", password: "Secret123"},
		{name: "long username", username: string(make([]byte, 51)), email: "a@example.com", password: "Secret123"},
		{name: "bad email", username: "alice", email: "not-an-email", password: "Secret123"},
		{name: "short password", username: "alice", email: "a@example.com", password: "12345"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Register_DuplicateUsername_SingleRow(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "Secret123")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	var n int64
	require.NoError(t, gdb.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob", "alice@example.com", "Secret123")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestAuthService_Register_ConcurrentSameEmail_OneWins(t *testing.T) {
	t.Parallel()

	svc, gdb := newTestAuthService(t)
	ctx := context.Background()

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, username := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Register(ctx, username, "shared@example.com", "Secret123")
		}(i, username)
	}
	close(start)
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, ErrDuplicateIdentity)
		}
	}
	assert.Equal(t, 1, failures, "exactly one registration must fail")

	var n int64
	require.NoError(t, gdb.Model(&models.User{}).Where("email = ?", "shared@example.com").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestAuthService_Login_Success(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, reg.User.ID, res.User.ID)
}

func TestAuthService_Login_FailuresIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)

	_, wrongPw := svc.Login(ctx, "alice", "wrongpw")
	require.Error(t, wrongPw)
	_, unknown := svc.Login(ctx, "nonexistent", "anything")
	require.Error(t, unknown)

	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestAuthService_Lookup(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)

	byID, err := svc.UserByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := svc.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, byName.ID)

	_, err = svc.UserByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
