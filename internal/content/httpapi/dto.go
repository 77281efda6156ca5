package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/content-pipeline/internal/content/models"
)

type RegisterUploadRequest struct {
	Type   models.ContentType `json:"type"`
	Source string             `json:"source"`
}

type ChangeStatusRequest struct {
	Status models.Status `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

type ContentResponse struct {
	ID            uuid.UUID          `json:"id"`
	Status        string             `json:"status"`
	Type          models.ContentType `json:"type"`
	Source        string             `json:"source"`
	FailureReason string             `json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type DerivativeResponse struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

type DerivativesResponse struct {
	ContentID   uuid.UUID            `json:"content_id"`
	Status      string               `json:"status"`
	Derivatives []DerivativeResponse `json:"derivatives"`
}
