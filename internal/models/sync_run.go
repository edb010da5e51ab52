package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncRunType string

const (
	SyncRunFull        SyncRunType = "full"
	SyncRunIncremental SyncRunType = "incremental"
	SyncRunCategories  SyncRunType = "categories"
	SyncRunPriceLists  SyncRunType = "price_lists"
)

type SyncRunStatus string

const (
	SyncRunRunning   SyncRunStatus = "running"
	SyncRunCompleted SyncRunStatus = "completed"
	SyncRunFailed    SyncRunStatus = "failed"
)

// SyncRun is an append-only audit row for one reconciliation pass. The row is
// created in "running" state before the first network call, so a crash
// mid-sync shows up as a stuck running row. The StartedAt of the most recent
// completed full/incremental run is the watermark for incremental sync.
type SyncRun struct {
	ID            string        `json:"id" gorm:"type:uuid;primary_key"`
	Type          SyncRunType   `json:"type" gorm:"not null"`
	TriggerSource string        `json:"trigger_source"`
	Status        SyncRunStatus `json:"status" gorm:"index"`
	CreatedCount  int           `json:"created_count"`
	UpdatedCount  int           `json:"updated_count"`
	SkippedCount  int           `json:"skipped_count"`
	DelistedCount int           `json:"delisted_count"`
	ErrorCount    int           `json:"error_count"`
	Errors        *string       `json:"errors"`
	StartedAt     time.Time     `json:"started_at" gorm:"index"`
	FinishedAt    *time.Time    `json:"finished_at"`
	DurationMS    int64         `json:"duration_ms"`
}

func (s *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
