package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

type ContentStatusChanged struct {
	eventID    uuid.UUID
	contentID  uuid.UUID
	from       Status
	to         Status
	reason     string
	occurredAt time.Time
}

func NewContentStatusChanged(contentID uuid.UUID, from, to Status, reason string) *ContentStatusChanged {
	return &ContentStatusChanged{
		eventID:    uuid.New(),
		contentID:  contentID,
		from:       from,
		to:         to,
		reason:     reason,
		occurredAt: time.Now(),
	}
}

// Реализация интерфейса DomainEvent
func (e *ContentStatusChanged) EventID() uuid.UUID     { return e.eventID }
func (e *ContentStatusChanged) EventType() string      { return "ContentStatusChanged" }
func (e *ContentStatusChanged) AggregateID() uuid.UUID { return e.contentID }
func (e *ContentStatusChanged) OccurredAt() time.Time  { return e.occurredAt }

// Геттеры для payload
func (e *ContentStatusChanged) From() Status   { return e.from }
func (e *ContentStatusChanged) To() Status     { return e.to }
func (e *ContentStatusChanged) Reason() string { return e.reason }

// Кастомная JSON сериализация
func (e *ContentStatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		ContentID  uuid.UUID `json:"content_id"`
		From       Status    `json:"from"`
		To         Status    `json:"to"`
		Reason     string    `json:"reason,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		ContentID:  e.contentID,
		From:       e.from,
		To:         e.to,
		Reason:     e.reason,
		OccurredAt: e.occurredAt,
	})
}

type DerivativeCreated struct {
	eventID      uuid.UUID
	contentID    uuid.UUID
	derivativeID uuid.UUID
	kind         string
	occurredAt   time.Time
}

func NewDerivativeCreated(contentID, derivativeID uuid.UUID, kind string) *DerivativeCreated {
	return &DerivativeCreated{
		eventID:      uuid.New(),
		contentID:    contentID,
		derivativeID: derivativeID,
		kind:         kind,
		occurredAt:   time.Now(),
	}
}

func (e *DerivativeCreated) EventID() uuid.UUID     { return e.eventID }
func (e *DerivativeCreated) EventType() string      { return "DerivativeCreated" }
func (e *DerivativeCreated) AggregateID() uuid.UUID { return e.contentID }
func (e *DerivativeCreated) OccurredAt() time.Time  { return e.occurredAt }

func (e *DerivativeCreated) DerivativeID() uuid.UUID { return e.derivativeID }
func (e *DerivativeCreated) Kind() string            { return e.kind }

func (e *DerivativeCreated) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID      uuid.UUID `json:"event_id"`
		ContentID    uuid.UUID `json:"content_id"`
		DerivativeID uuid.UUID `json:"derivative_id"`
		Kind         string    `json:"kind"`
		OccurredAt   time.Time `json:"occurred_at"`
	}{
		EventID:      e.eventID,
		ContentID:    e.contentID,
		DerivativeID: e.derivativeID,
		Kind:         e.kind,
		OccurredAt:   e.occurredAt,
	})
}
