package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
)

func validContext() map[string]any {
	return map[string]any{
		"email":      "test@email.com",
		"first_name": "Test",
		"last_name":  "Testovich",
	}
}

func TestLookup_UserCreated(t *testing.T) {
	preparer, err := Lookup(domain.EventTypeUserCreated, UserCreatedVersion)
	require.NoError(t, err)

	payload, err := preparer(validContext())
	require.NoError(t, err)

	assert.Equal(t, UserCreated{
		Email:     "test@email.com",
		FirstName: "Test",
		LastName:  "Testovich",
	}, payload)
}

func TestLookup_UnknownTag(t *testing.T) {
	_, err := Lookup("unknown", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownEventType)
}

func TestLookup_UnknownVersion(t *testing.T) {
	_, err := Lookup(domain.EventTypeUserCreated, 99)
	assert.ErrorIs(t, err, domain.ErrUnknownEventType)
}

func TestPrepareUserCreated_InvalidContext(t *testing.T) {
	tests := []struct {
		name    string
		context map[string]any
	}{
		{
			name:    "missing_email",
			context: map[string]any{"first_name": "Test", "last_name": "Testovich"},
		},
		{
			name:    "email_not_a_string",
			context: map[string]any{"email": 42, "first_name": "Test", "last_name": "Testovich"},
		},
		{
			name:    "empty_context",
			context: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prepareUserCreated(tt.context)
			assert.ErrorIs(t, err, domain.ErrInvalidContext)
		})
	}
}

// The event_context column of the sink must be the serialization of the
// typed payload, stable across calls, never a raw copy of the context map.
func TestPrepareRecord_Serialization(t *testing.T) {
	when := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	evt := domain.OutboxEvent{
		ID:              7,
		EventType:       domain.EventTypeUserCreated,
		EventDateTime:   when,
		Environment:     "Local",
		EventContext:    validContext(),
		MetadataVersion: UserCreatedVersion,
	}

	rec, err := PrepareRecord(evt)
	require.NoError(t, err)

	want := `{"email":"test@email.com","first_name":"Test","last_name":"Testovich"}`
	assert.Equal(t, want, rec.EventContext)
	assert.Equal(t, "user_created", rec.EventType)
	assert.Equal(t, when, rec.EventDateTime)
	assert.Equal(t, "Local", rec.Environment)
	assert.Equal(t, uint32(1), rec.MetadataVersion)

	again, err := PrepareRecord(evt)
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestPrepareRecord_UnknownType(t *testing.T) {
	_, err := PrepareRecord(domain.OutboxEvent{
		EventType:       "unknown",
		EventContext:    validContext(),
		MetadataVersion: 1,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownEventType)
}
