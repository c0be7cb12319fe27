package model

import "time"

// Batch is a collection of e-waste items moving through the processing
// pipeline. Reference is the human-readable batch identifier shown on
// the board (the database id stays internal).
type Batch struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"batch_id"`
	UserID       int64     `json:"user_id"`
	Source       string    `json:"source"`
	ItemCount    int       `json:"item_count"`
	TotalWeight  float64   `json:"total_weight"`
	Stage        string    `json:"stage"`
	Notes        string    `json:"notes"`
	AssignedDate time.Time `json:"assigned_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BatchItem is a line item recorded at batch creation, immutable after.
type BatchItem struct {
	ID        int64  `json:"id"`
	BatchID   int64  `json:"batch_id"`
	ItemType  string `json:"item_type"`
	Quantity  int    `json:"quantity"`
	Condition string `json:"condition"`
}

// BatchHistoryEntry is an append-only record of a single stage change.
// FromStage is empty for the entry written at batch creation.
type BatchHistoryEntry struct {
	ID        int64     `json:"id"`
	BatchID   int64     `json:"batch_id"`
	FromStage string    `json:"from_stage"`
	ToStage   string    `json:"to_stage"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     string    `json:"notes"`
}

// BatchDetail is a batch with its items and full history, newest change
// first.
type BatchDetail struct {
	Batch
	Items   []BatchItem         `json:"items"`
	History []BatchHistoryEntry `json:"history"`
}

// Pipeline stages, in board order. Any stage may move to any other,
// including backwards; only membership in this set is validated.
const (
	StageIncoming    = "incoming"
	StageCollected   = "collected"
	StageSorting     = "sorting"
	StageDismantling = "dismantling"
	StageRecovery    = "recovery"
	StageCompleted   = "completed"
)

// Stages lists the pipeline stages in board order.
var Stages = []string{
	StageIncoming,
	StageCollected,
	StageSorting,
	StageDismantling,
	StageRecovery,
	StageCompleted,
}

// ValidStage reports whether stage is one of the pipeline stages.
func ValidStage(stage string) bool {
	for _, s := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}
