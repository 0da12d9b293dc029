// internal/model/client.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is a clinic that owns campaigns.
type Client struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
