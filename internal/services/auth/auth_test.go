package auth

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/storage/postgres"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users  map[string]models.User
	nextId int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, username, email string, passHash []byte, created time.Time) (int64, error) {
	if _, ok := f.users[email]; ok {
		return 0, postgres.ErrUserAlreadyExists
	}
	f.nextId++
	f.users[email] = models.User{
		Id:       f.nextId,
		Username: username,
		Email:    email,
		PassHash: passHash,
		Created:  created,
	}
	return f.nextId, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return models.User{}, postgres.ErrUserNotExists
	}
	return user, nil
}

func (f *fakeUsers) GetUserById(_ context.Context, id int64) (models.User, error) {
	for _, user := range f.users {
		if user.Id == id {
			return user, nil
		}
	}
	return models.User{}, postgres.ErrUserNotExists
}

func newService(users *fakeUsers) *AuthService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(*log, users, "test-secret", time.Hour)
}

func TestSignupLoginVerify(t *testing.T) {
	users := newFakeUsers()
	svc := newService(users)
	ctx := context.Background()

	signedUp, token, err := svc.Signup(ctx, "trader", "trader@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, int64(1), signedUp.Id)

	verified, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, signedUp.Id, verified.Id)
	assert.Equal(t, "trader", verified.Username)

	loggedIn, token2, err := svc.Login(ctx, "trader@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token2)
	assert.Equal(t, signedUp.Id, loggedIn.Id)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := newService(newFakeUsers())
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "trader", "trader@example.com", "hunter22")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "other", "trader@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newService(newFakeUsers())
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "trader", "trader@example.com", "hunter22")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "trader@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_InvalidToken(t *testing.T) {
	svc := newService(newFakeUsers())

	_, err := svc.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TokenSignedWithOtherSecret(t *testing.T) {
	users := newFakeUsers()
	ctx := context.Background()

	_, token, err := newService(users).Signup(ctx, "trader", "trader@example.com", "hunter22")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	other := New(*log, users, "other-secret", time.Hour)

	_, err = other.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
