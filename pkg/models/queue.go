package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QueueItem is a mutation waiting in the offline queue to be replayed against the API.
type QueueItem struct {
	ID        uuid.UUID       `json:"id"`
	Method    string          `json:"method"`
	Endpoint  string          `json:"endpoint"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Retries   int             `json:"retries"`
}
