package models

import "time"

// BlockStatusBlocked is a tag, not a lifecycle: every block row carries it.
const BlockStatusBlocked = "blocked"

// Block is an operator-declared unavailable slot, independent of any booking.
type Block struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM grid label
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
