package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/events"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/ports"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/logger"
)

// UserService is the CreateUser use case. The business write and the outbox
// append ride one transaction, so an event is emitted if and only if the
// user row commits.
type UserService struct {
	userRepo    ports.UserRepository
	environment string
	log         zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(userRepo ports.UserRepository, environment string) *UserService {
	return &UserService{
		userRepo:    userRepo,
		environment: environment,
		log:         logger.Logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *UserService) CreateUser(ctx context.Context, req ports.CreateUserRequest) (ports.CreateUserResponse, error) {
	if req.Email == "" {
		return ports.CreateUserResponse{Error: "email is required"}, nil
	}

	s.log.Info().Str("email", req.Email).Msg("creating a new user")

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now().UTC(),
	}

	event := domain.OutboxEvent{
		EventType:     domain.EventTypeUserCreated,
		EventDateTime: user.CreatedAt,
		Environment:   s.environment,
		EventContext: map[string]any{
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
		MetadataVersion: events.UserCreatedVersion,
	}

	created, err := s.userRepo.CreateUser(ctx, user, event)
	if err != nil {
		s.log.Error().Err(err).Str("email", req.Email).Msg("failed to create user")
		return ports.CreateUserResponse{}, fmt.Errorf("create user: %w", err)
	}

	if !created {
		s.log.Warn().Str("email", req.Email).Msg("unable to create a new user")
		return ports.CreateUserResponse{Error: "User with this email already exists"}, nil
	}

	s.log.Info().Str("user_id", user.ID).Msg("user has been created")
	return ports.CreateUserResponse{Result: &user}, nil
}
