package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ecotrack/ecotrack/internal/model"
)

// BatchItemInput describes a line item submitted at batch creation.
type BatchItemInput struct {
	ItemType  string `json:"item_type"`
	Quantity  int    `json:"quantity"`
	Condition string `json:"condition"`
}

// newBatchReference derives a human-readable batch identifier from the
// current time. Not guaranteed unique under concurrent creation within
// the same millisecond window.
func newBatchReference(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	return "EW-" + ms[len(ms)-8:]
}

// CreateBatch inserts a batch, its line items, and the initial history
// entry in a single transaction. The batch starts at the incoming stage
// and item_count is the sum of the submitted item quantities.
func CreateBatch(ctx context.Context, db *sql.DB, userID int64, source string, totalWeight float64, notes string, items []BatchItemInput) (*model.Batch, error) {
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}

	itemCount := 0
	for _, item := range items {
		itemCount += item.Quantity
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	changedBy, err := userDisplayName(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO batches (batch_id, user_id, source, item_count, total_weight, stage, notes, assigned_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newBatchReference(now), userID, source, itemCount, totalWeight, model.StageIncoming, notes, now, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating batch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting batch id: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO batch_items (batch_id, item_type, quantity, condition) VALUES (?, ?, ?, ?)`,
			id, item.ItemType, item.Quantity, item.Condition,
		)
		if err != nil {
			return nil, fmt.Errorf("creating batch item: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch_history (batch_id, from_stage, to_stage, changed_by, changed_at, notes)
		 VALUES (?, '', ?, ?, ?, 'Batch created')`,
		id, model.StageIncoming, changedBy, now,
	)
	if err != nil {
		return nil, fmt.Errorf("recording batch creation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}

	return GetBatch(ctx, db, userID, id)
}

// GetBatch returns a batch by ID, scoped to its owner.
func GetBatch(ctx context.Context, db *sql.DB, userID, id int64) (*model.Batch, error) {
	b := &model.Batch{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, batch_id, user_id, source, item_count, total_weight, stage, notes, assigned_date, created_at, updated_at
		 FROM batches WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&b.ID, &b.Reference, &b.UserID, &b.Source, &b.ItemCount, &b.TotalWeight, &b.Stage, &notes,
		&b.AssignedDate, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	b.Notes = notes.String
	return b, nil
}

// ListBatches returns all batches owned by a user, newest-created
// first, without items or history.
func ListBatches(ctx context.Context, db *sql.DB, userID int64) ([]model.Batch, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, batch_id, user_id, source, item_count, total_weight, stage, notes, assigned_date, created_at, updated_at
		 FROM batches WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		var b model.Batch
		var notes sql.NullString
		if err := rows.Scan(&b.ID, &b.Reference, &b.UserID, &b.Source, &b.ItemCount, &b.TotalWeight, &b.Stage, &notes,
			&b.AssignedDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		b.Notes = notes.String
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetBatchDetail returns a batch with its items and its history, newest
// change first.
func GetBatchDetail(ctx context.Context, db *sql.DB, userID, id int64) (*model.BatchDetail, error) {
	batch, err := GetBatch(ctx, db, userID, id)
	if err != nil || batch == nil {
		return nil, err
	}

	detail := &model.BatchDetail{Batch: *batch, Items: []model.BatchItem{}, History: []model.BatchHistoryEntry{}}

	rows, err := db.QueryContext(ctx,
		`SELECT id, batch_id, item_type, quantity, condition
		 FROM batch_items WHERE batch_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing batch items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.BatchItem
		var condition sql.NullString
		if err := rows.Scan(&item.ID, &item.BatchID, &item.ItemType, &item.Quantity, &condition); err != nil {
			return nil, fmt.Errorf("scanning batch item: %w", err)
		}
		item.Condition = condition.String
		detail.Items = append(detail.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	history, err := listBatchHistory(ctx, db, id)
	if err != nil {
		return nil, err
	}
	detail.History = history

	return detail, nil
}

// SetStage moves a batch to a new stage and appends the matching
// history entry in a single transaction. Every stage pair is accepted,
// including backwards moves and no-ops. Returns (nil, nil) if the batch
// does not exist for this owner.
func SetStage(ctx context.Context, db *sql.DB, userID, id int64, stage, notes string) (*model.Batch, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var fromStage string
	err = tx.QueryRowContext(ctx,
		`SELECT stage FROM batches WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&fromStage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting batch stage: %w", err)
	}

	changedBy, err := userDisplayName(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE batches SET stage = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		stage, now, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating batch stage: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch_history (batch_id, from_stage, to_stage, changed_by, changed_at, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, fromStage, stage, changedBy, now, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("recording stage change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stage change: %w", err)
	}

	return GetBatch(ctx, db, userID, id)
}

func listBatchHistory(ctx context.Context, db *sql.DB, batchID int64) ([]model.BatchHistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, batch_id, from_stage, to_stage, changed_by, changed_at, notes
		 FROM batch_history WHERE batch_id = ? ORDER BY changed_at DESC, id DESC`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing batch history: %w", err)
	}
	defer rows.Close()

	history := []model.BatchHistoryEntry{}
	for rows.Next() {
		var e model.BatchHistoryEntry
		var notes sql.NullString
		if err := rows.Scan(&e.ID, &e.BatchID, &e.FromStage, &e.ToStage, &e.ChangedBy, &e.ChangedAt, &notes); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Notes = notes.String
		history = append(history, e)
	}
	return history, rows.Err()
}

// userDisplayName resolves the acting user's display name for history
// attribution, falling back to "System" if the user row is gone.
func userDisplayName(ctx context.Context, tx *sql.Tx, userID int64) (string, error) {
	var name string
	err := tx.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, userID).Scan(&name)
	if err == sql.ErrNoRows {
		return "System", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting user name: %w", err)
	}
	if name == "" {
		return "System", nil
	}
	return name, nil
}
