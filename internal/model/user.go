package model

import "time"

// User is a registered account. Points only ever grow, one pickup at
// a time.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
}

// PointsPerPickup is awarded to a user for each pickup they schedule.
const PointsPerPickup = 10
