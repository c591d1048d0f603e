package ports

import (
	"context"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
)

type CreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateUserResponse is the structured use-case response: exactly one of
// Result or Error is populated. Error carries business rejections (duplicate
// email); system failures propagate as the second return value instead.
type CreateUserResponse struct {
	Result *domain.User `json:"result"`
	Error  string       `json:"error"`
}

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (CreateUserResponse, error)
}
