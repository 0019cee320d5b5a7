package domain

import (
	"time"

	"github.com/google/uuid"
)

// Baby represents a baby in the system.
// Caregiver custody is enforced via parent_user_id from JWT claims;
// birth date and sex feed the growth and dosing engines.
type Baby struct {
	ID           uuid.UUID `json:"id"`
	LastName     string    `json:"last_name"`
	BirthDate    time.Time `json:"birth_date"`
	Sex          Sex       `json:"sex"`
	ParentUserID uuid.UUID `json:"parent_user_id"` // From Identity Service JWT
	CreatedAt    time.Time `json:"created_at"`
}
