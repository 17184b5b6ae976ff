package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeExerciseCompleted = "exercise.completed"
	TypeExerciseUnlocked  = "exercise.unlocked"
	TypeLessonUnlocked    = "lesson.unlocked"
)

// ProgressEvent records a change in a learner's progress.
type ProgressEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	UserID    uuid.UUID       `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ExerciseCompleted is the payload of TypeExerciseCompleted.
type ExerciseCompleted struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	LessonID     uuid.UUID `json:"lesson_id"`
	PointsEarned int       `json:"points_earned"`
}

// Unlocked is the payload of TypeExerciseUnlocked and TypeLessonUnlocked.
type Unlocked struct {
	ID uuid.UUID `json:"id"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *ProgressEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewProgressEvent creates an event with a fresh ID.
func NewProgressEvent(eventType string, userID uuid.UUID, payload interface{}, now time.Time) (*ProgressEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &ProgressEvent{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: now.UTC(),
	}, nil
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *ProgressEvent) error
}

// EventEmitter publishes events to handlers without the publisher knowing them.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *ProgressEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *ProgressEvent) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ProgressEvent) error {
	return f(ctx, event)
}

// NopEmitter drops every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *ProgressEvent) error { return nil }
