package testutils

import (
	"context"
	"testing"

	"github.com/nfrund/organizapp/internal/domain"
)

// CreateUser stores a user with the given display name and fails the test
// if the store refuses it.
func CreateUser(t *testing.T, users domain.UserRepository, name string) *domain.User {
	t.Helper()

	user, err := users.Create(context.Background(), &domain.User{Name: name})
	if err != nil {
		t.Fatalf("failed to create user %q: %v", name, err)
	}
	return user
}
