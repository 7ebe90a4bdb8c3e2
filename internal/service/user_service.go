package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"userapi/internal/auth"
	"userapi/internal/cache"
	dom "userapi/internal/domain"
	"userapi/internal/repo"
	"userapi/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// CreateUserInput is what it takes to register an account.
// Password is plaintext here and nowhere past this layer.
type CreateUserInput struct {
	Username           string
	Email              string
	Password           string
	ProfilePicture     string
	ProfileDescription string
}

// UpdateUserInput holds the fields a partial update may change.
// nil leaves the stored value alone.
type UpdateUserInput struct {
	Username           *string
	Email              *string
	Password           *string
	ProfilePicture     *string
	ProfileDescription *string
}

// UserService orchestrates account CRUD over the repo,
// hashing passwords on the way in.
type UserService struct {
	repo   repo.UserRepo
	hasher *auth.PasswordHasher
	cache  *cache.UserCache
	sf     singleflight.Group
}

// NewUserService creates a UserService. If c is nil, caching is disabled.
func NewUserService(r repo.UserRepo, hasher *auth.PasswordHasher, c *cache.UserCache) *UserService {
	return &UserService{repo: r, hasher: hasher, cache: c}
}

// Create hashes the password and persists a new account.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (dom.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return dom.User{}, err
	}
	u, err := s.repo.Create(ctx, dom.User{
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       hash,
		ProfilePicture:     in.ProfilePicture,
		ProfileDescription: in.ProfileDescription,
	})
	if err != nil {
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, ErrUsernameTaken
		}
		return dom.User{}, fmt.Errorf("create user: %w", err)
	}
	s.invalidateCache(ctx)
	return u, nil
}

// List returns one page of accounts in insertion order.
// limit defaults to 10 and is capped at 100; page defaults to 1.
func (s *UserService) List(ctx context.Context, limit, page int) ([]dom.User, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if s.cache != nil {
		key := "page:" + strconv.Itoa(limit) + ":" + strconv.Itoa(page)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetPage(ctx, limit, page); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx, limit, offset)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetPage(ctx, limit, page, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.User), nil
	}
	return s.repo.List(ctx, limit, offset)
}

// GetByID returns one account; a miss is ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (dom.User, error) {
	if s.cache != nil {
		key := "id:" + strconv.FormatInt(id, 10)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if u, err := s.cache.GetByID(ctx, id); err == nil && u != nil {
				return *u, nil
			}
			u, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return dom.User{}, err
			}
			_ = s.cache.SetByID(ctx, u)
			return u, nil
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return dom.User{}, ErrNotFound
			}
			return dom.User{}, err
		}
		return v.(dom.User), nil
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, err
	}
	return u, nil
}

// GetByUsername returns one account; a miss is ErrNotFound.
func (s *UserService) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, err
	}
	return u, nil
}

// Update merges the given fields into the stored account and returns the
// refreshed record. A new password is re-hashed before it is persisted.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (dom.User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, err
	}
	patch := existing
	if in.Username != nil {
		patch.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		patch.Email = strings.TrimSpace(*in.Email)
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return dom.User{}, err
		}
		patch.PasswordHash = hash
	}
	if in.ProfilePicture != nil {
		patch.ProfilePicture = *in.ProfilePicture
	}
	if in.ProfileDescription != nil {
		patch.ProfileDescription = *in.ProfileDescription
	}
	u, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrNotFound
		}
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, ErrUsernameTaken
		}
		return dom.User{}, fmt.Errorf("update user: %w", err)
	}
	s.invalidateCache(ctx)
	return u, nil
}

// Delete removes the account. Deleting an unknown id is ErrNotFound,
// never a silent success.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *UserService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateAll(ctx)
	}
}
