// Package mocks provides mock implementations of port interfaces for testing.
// Ports define the contracts between the core domain and external adapters;
// mocks implement these interfaces to enable isolated testing.
package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/ports"
)

// MockUserRepository implements ports.UserRepository in memory. It mirrors
// the atomicity of the real adapter: the user and its outbox event are
// recorded together or not at all.
type MockUserRepository struct {
	mu sync.RWMutex

	users          map[string]domain.User
	AppendedEvents []domain.OutboxEvent

	// Call tracking for verification
	CreateUserCalls []string

	// Error injection for testing error scenarios
	CreateUserError error
}

// Ensure MockUserRepository implements ports.UserRepository at compile time.
var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]domain.User),
	}
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user domain.User, event domain.OutboxEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateUserCalls = append(m.CreateUserCalls, user.Email)

	if m.CreateUserError != nil {
		// Simulated rollback: nothing is recorded.
		return false, m.CreateUserError
	}

	if _, exists := m.users[user.Email]; exists {
		return false, nil
	}

	m.users[user.Email] = user
	m.AppendedEvents = append(m.AppendedEvents, event)
	return true, nil
}

// UserByEmail returns a stored user for test verification.
func (m *MockUserRepository) UserByEmail(email string) (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	return u, ok
}
