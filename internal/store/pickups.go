package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ecotrack/ecotrack/internal/model"
)

// CreatePickup inserts a pickup request and awards the fixed point
// reward to its owner in a single transaction, so a pickup row and its
// point award cannot exist without each other.
func CreatePickup(ctx context.Context, db *sql.DB, userID int64, address, itemsDescription string) (*model.Pickup, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Snapshot the requester's name and email onto the pickup row.
	var name, email string
	err = tx.QueryRowContext(ctx,
		`SELECT name, email FROM users WHERE id = ?`, userID,
	).Scan(&name, &email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pickup owner: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO pickups (user_id, name, email, address, items_description, status, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, name, email, address, itemsDescription, model.PickupStatusPending, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pickup: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET points = points + ? WHERE id = ?`,
		model.PointsPerPickup, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("awarding points: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting pickup id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pickup: %w", err)
	}

	return GetPickup(ctx, db, userID, id)
}

// GetPickup returns a pickup by ID, scoped to its owner.
func GetPickup(ctx context.Context, db *sql.DB, userID, id int64) (*model.Pickup, error) {
	p := &model.Pickup{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, address, items_description, status, requested_at
		 FROM pickups WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Address, &p.ItemsDescription, &p.Status, &p.RequestedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pickup: %w", err)
	}
	return p, nil
}

// ListPickups returns all pickups owned by a user, newest request first.
func ListPickups(ctx context.Context, db *sql.DB, userID int64) ([]model.Pickup, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, name, email, address, items_description, status, requested_at
		 FROM pickups WHERE user_id = ? ORDER BY requested_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pickups: %w", err)
	}
	defer rows.Close()

	var pickups []model.Pickup
	for rows.Next() {
		var p model.Pickup
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Address, &p.ItemsDescription, &p.Status, &p.RequestedAt); err != nil {
			return nil, fmt.Errorf("scanning pickup: %w", err)
		}
		pickups = append(pickups, p)
	}
	return pickups, rows.Err()
}
