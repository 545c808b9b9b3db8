package model

import (
	"time"

	"github.com/google/uuid"
)

// Settings holds the practice-level settings record. Values is a loosely
// shaped bag: price defaults have accumulated several key conventions over
// time and may also be grouped under nested objects.
type Settings struct {
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Values    JSONMap   `db:"values" json:"values"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
