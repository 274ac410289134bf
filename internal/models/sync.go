package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncEntity names a synchronized entity type
type SyncEntity string

const (
	SyncEntityProducts   SyncEntity = "products"
	SyncEntityCategories SyncEntity = "categories"
)

// SyncState represents the status of a sync run
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStatePending SyncState = "pending"
	SyncStateRunning SyncState = "running"
	SyncStateSuccess SyncState = "success"
	SyncStateError   SyncState = "error"
)

// IsTerminal reports whether the state ends a sync run.
func (s SyncState) IsTerminal() bool {
	return s == SyncStateSuccess || s == SyncStateError
}

// SyncStatus is the single progress row kept per synchronized entity. The
// admin dashboard subscribes to changes on this row for live progress bars,
// so it is upserted in place rather than appended to.
type SyncStatus struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Entity     SyncEntity `json:"entity" gorm:"uniqueIndex;type:varchar(32);not null"`
	Status     SyncState  `json:"status" gorm:"type:varchar(20);not null;default:'idle'"`
	Total      int        `json:"total" gorm:"not null;default:0"`
	Processed  int        `json:"processed" gorm:"not null;default:0"`
	Percent    int        `json:"percent" gorm:"not null;default:0"`
	Message    string     `json:"message,omitempty" gorm:"type:text"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for SyncStatus
func (SyncStatus) TableName() string {
	return "sync_statuses"
}

// ComputePercent returns floor(processed/total*100), or 0 when total is 0.
func ComputePercent(processed, total int) int {
	if total <= 0 {
		return 0
	}
	return processed * 100 / total
}

// SyncSummary is the JSON body returned by a completed sync invocation.
type SyncSummary struct {
	OK               bool `json:"ok"`
	Synced           int  `json:"synced"`
	Deleted          int  `json:"deleted,omitempty"`
	RemovedZeroStock int  `json:"removedZeroStock,omitempty"`
	RemovedOrphaned  int  `json:"removedOrphaned,omitempty"`
}
