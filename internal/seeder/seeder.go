package seeder

import (
	"context"
	"fmt"
	"log"

	"userapi/internal/service"
)

const (
	mockUserCount    = 20
	mockUserPassword = "password123"
)

// Seeder populates the store with placeholder accounts when it is empty.
// It runs once at startup and never touches a non-empty store.
type Seeder struct {
	users *service.UserService
}

// New returns a new Seeder.
func New(users *service.UserService) *Seeder {
	return &Seeder{users: users}
}

// Run seeds user1..user20 if no account exists yet.
func (s *Seeder) Run(ctx context.Context) error {
	existing, err := s.users.List(ctx, 1, 1)
	if err != nil {
		return fmt.Errorf("seeder: check store: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("seeder: users already exist, skipping")
		return nil
	}
	for i := 1; i <= mockUserCount; i++ {
		_, err := s.users.Create(ctx, service.CreateUserInput{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: mockUserPassword,
		})
		if err != nil {
			return fmt.Errorf("seeder: create user%d: %w", i, err)
		}
	}
	log.Printf("seeder: created %d mock users", mockUserCount)
	return nil
}
