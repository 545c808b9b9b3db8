package model

import "github.com/google/uuid"

// Patient is an external entity: the scheduling core reads name and phone for
// exports and never mutates the record.
type Patient struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Phone string    `db:"phone" json:"phone,omitempty"`
}
