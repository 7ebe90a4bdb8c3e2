package service

import (
	"context"
	"strconv"
	"testing"

	"userapi/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(repo *fakeUserRepo) *AuthService {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	issuer := auth.NewTokenIssuer("test-secret", 0)
	return NewAuthService(repo, hasher, issuer)
}

func seedAccount(t *testing.T, repo *fakeUserRepo, username, password string) int64 {
	t.Helper()
	svc := newTestUserService(repo)
	u, err := svc.Create(context.Background(), CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return u.ID
}

func TestValidateCredentialsUnknownUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.ValidateCredentials(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateCredentialsWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedAccount(t, repo, "alice", "secret1")
	svc := newTestAuthService(repo)

	_, err := svc.ValidateCredentials(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateCredentialsEmptyInput(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.ValidateCredentials(context.Background(), "", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.ValidateCredentials(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateCredentialsSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	id := seedAccount(t, repo, "alice", "secret1")
	svc := newTestAuthService(repo)

	u, err := svc.ValidateCredentials(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice", u.Username)
}

func TestLoginTokenSubjectIsAccountID(t *testing.T) {
	repo := newFakeUserRepo()
	id := seedAccount(t, repo, "alice", "secret1")
	issuer := auth.NewTokenIssuer("test-secret", 0)
	svc := NewAuthService(repo, auth.NewPasswordHasher(bcrypt.MinCost), issuer)

	u, err := svc.ValidateCredentials(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), u)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(id, 10), claims.Subject)
	assert.Equal(t, "alice", claims.Username)
}
