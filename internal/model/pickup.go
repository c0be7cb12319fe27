package model

import "time"

// Pickup is a scheduled e-waste collection request. Name and email are
// snapshots of the requesting user at creation time.
type Pickup struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Address          string    `json:"address"`
	ItemsDescription string    `json:"items_description"`
	Status           string    `json:"status"`
	RequestedAt      time.Time `json:"requested_at"`
}

// Pickup statuses.
const (
	PickupStatusPending   = "pending"
	PickupStatusScheduled = "scheduled"
	PickupStatusCompleted = "completed"
	PickupStatusCancelled = "cancelled"
)
