package model

import "time"

type SyncState string

const (
	SyncSynced  SyncState = "synced"
	SyncPending SyncState = "pending"
	SyncError   SyncState = "error"
)

// SyncStatus 内存文档的持久化状态。
// Revision 为最新的本地修改，SavedRevision 为已确认保存的版本
type SyncStatus struct {
	JobID         string     `json:"jobId"`
	State         SyncState  `json:"state"`
	Revision      int64      `json:"revision"`
	SavedRevision int64      `json:"savedRevision"`
	LastError     string     `json:"lastError,omitempty"`
	Attempts      int        `json:"attempts"`
	PendingSince  *time.Time `json:"pendingSince,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
