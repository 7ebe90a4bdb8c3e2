package service

import (
	"context"
	"errors"
	"strings"

	"userapi/internal/auth"
	dom "userapi/internal/domain"
	"userapi/internal/repo"

	"github.com/jackc/pgx/v5"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService answers "are these credentials valid" and mints bearer tokens.
type AuthService struct {
	repo   repo.UserRepo
	hasher *auth.PasswordHasher
	issuer *auth.TokenIssuer
}

// NewAuthService returns a new AuthService.
func NewAuthService(r repo.UserRepo, hasher *auth.PasswordHasher, issuer *auth.TokenIssuer) *AuthService {
	return &AuthService{repo: r, hasher: hasher, issuer: issuer}
}

// ValidateCredentials checks username and password; returns the account if
// valid. Unknown user and wrong password are the same ErrInvalidCredentials,
// so the response cannot be used to enumerate usernames.
func (s *AuthService) ValidateCredentials(ctx context.Context, username, password string) (dom.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return dom.User{}, ErrInvalidCredentials
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrInvalidCredentials
		}
		return dom.User{}, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return dom.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Login mints a token for an already-verified account. No session state is
// stored; the token is the only artifact.
func (s *AuthService) Login(ctx context.Context, u dom.User) (string, error) {
	_ = ctx
	return s.issuer.Issue(u.ID, u.Username)
}
