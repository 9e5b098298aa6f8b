package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Lifecycle event types emitted by the account services.
const (
	EventPrincipalCreated  = "principal.created"
	EventPrincipalUpdated  = "principal.updated"
	EventPrincipalDeleted  = "principal.deleted"
	EventPrincipalRestored = "principal.restored"
	EventPrincipalLogin    = "principal.login"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// PrincipalEventPayload is the wire payload for principal lifecycle events.
type PrincipalEventPayload struct {
	PrincipalID uuid.UUID     `json:"principal_id"`
	Kind        PrincipalKind `json:"kind"`
	Username    string        `json:"username"`
	Status      string        `json:"status"`
}
