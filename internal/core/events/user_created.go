package events

import (
	"fmt"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
)

// UserCreatedVersion is the current metadata version of user_created rows.
const UserCreatedVersion = 1

// UserCreated is the typed payload behind user_created rows. The JSON tags
// are the wire contract of the event_context column in the sink.
type UserCreated struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func init() {
	Register(domain.EventTypeUserCreated, UserCreatedVersion, prepareUserCreated)
}

func prepareUserCreated(eventContext map[string]any) (any, error) {
	email, err := stringField(eventContext, "email")
	if err != nil {
		return nil, err
	}
	firstName, err := stringField(eventContext, "first_name")
	if err != nil {
		return nil, err
	}
	lastName, err := stringField(eventContext, "last_name")
	if err != nil {
		return nil, err
	}

	return UserCreated{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}, nil
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", domain.ErrInvalidContext, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q is not a string", domain.ErrInvalidContext, key)
	}
	return s, nil
}
