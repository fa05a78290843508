package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishInvalidLogin publishes accounts.auth.invalid_login events.
func (p *EventPublisher) PublishInvalidLogin(ctx context.Context, event domain.InvalidLoginEvent) error {
	payload := struct {
		UserID       string         `json:"user_id"`
		AttemptCount int            `json:"attempt_count"`
		AttemptedAt  time.Time      `json:"attempted_at"`
		Locked       bool           `json:"locked"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		UserID:       event.UserID,
		AttemptCount: event.AttemptCount,
		AttemptedAt:  event.AttemptedAt.UTC(),
		Locked:       event.Locked,
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.invalid_login", event.UserID, event.AttemptedAt, payload)
}

// PublishUserLocked publishes accounts.user.locked events.
func (p *EventPublisher) PublishUserLocked(ctx context.Context, event domain.UserLockedEvent) error {
	payload := struct {
		UserID   string         `json:"user_id"`
		LockedAt time.Time      `json:"locked_at"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}{
		UserID:   event.UserID,
		LockedAt: event.LockedAt.UTC(),
		Metadata: event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.locked", event.UserID, event.LockedAt, payload)
}

// PublishUserUnlocked publishes accounts.user.unlocked events.
func (p *EventPublisher) PublishUserUnlocked(ctx context.Context, event domain.UserUnlockedEvent) error {
	payload := struct {
		UserID     string         `json:"user_id"`
		UnlockedAt time.Time      `json:"unlocked_at"`
		Reason     string         `json:"reason"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		UserID:     event.UserID,
		UnlockedAt: event.UnlockedAt.UTC(),
		Reason:     event.Reason,
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.unlocked", event.UserID, event.UnlockedAt, payload)
}

// PublishUserSuspended publishes accounts.user.suspended events.
func (p *EventPublisher) PublishUserSuspended(ctx context.Context, event domain.UserSuspendedEvent) error {
	payload := struct {
		UserID      string         `json:"user_id"`
		SuspendedAt time.Time      `json:"suspended_at"`
		Actor       string         `json:"actor,omitempty"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		UserID:      event.UserID,
		SuspendedAt: event.SuspendedAt.UTC(),
		Actor:       event.Actor,
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.suspended", event.UserID, event.SuspendedAt, payload)
}

// PublishUserUnsuspended publishes accounts.user.unsuspended events.
func (p *EventPublisher) PublishUserUnsuspended(ctx context.Context, event domain.UserUnsuspendedEvent) error {
	payload := struct {
		UserID        string         `json:"user_id"`
		UnsuspendedAt time.Time      `json:"unsuspended_at"`
		Actor         string         `json:"actor,omitempty"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		UserID:        event.UserID,
		UnsuspendedAt: event.UnsuspendedAt.UTC(),
		Actor:         event.Actor,
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.unsuspended", event.UserID, event.UnsuspendedAt, payload)
}

// PublishPasswordChanged publishes accounts.user.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID          string         `json:"user_id"`
		ChangedAt       time.Time      `json:"changed_at"`
		SessionsRevoked int            `json:"sessions_revoked"`
		Metadata        map[string]any `json:"metadata,omitempty"`
	}{
		UserID:          event.UserID,
		ChangedAt:       event.ChangedAt.UTC(),
		SessionsRevoked: event.SessionsRevoked,
		Metadata:        event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.password.changed", event.UserID, event.ChangedAt, payload)
}

// PublishUserDeleted publishes accounts.user.deleted events.
func (p *EventPublisher) PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error {
	payload := struct {
		UserID      string         `json:"user_id"`
		InheritorID *string        `json:"inheritor_id,omitempty"`
		DeletedAt   time.Time      `json:"deleted_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		UserID:      event.UserID,
		InheritorID: event.InheritorID,
		DeletedAt:   event.DeletedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.deleted", event.UserID, event.DeletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
