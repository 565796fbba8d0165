package model

import "time"

const (
	ReportStatusPending     int8 = 0
	ReportStatusIgnored     int8 = 1
	ReportStatusActionTaken int8 = 2
)

const (
	ReportActionNone        int8 = 0
	ReportActionIgnored     int8 = 1
	ReportActionPostRemoved int8 = 2
	ReportActionUserBlocked int8 = 3
)

type Report struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index"`
	PostID      uint64 `gorm:"not null;index"`
	ReporterID  uint64 `gorm:"not null"`
	ReportedID  uint64 `gorm:"not null"`
	Reason      string `gorm:"size:500;not null"`
	Status      int8   `gorm:"not null;default:0"`
	Action      int8   `gorm:"not null;default:0"`
	// 快照字段在举报时固化，帖子后续被删也能看到当时内容
	SnapshotTitle   string `gorm:"size:200"`
	SnapshotContent string `gorm:"type:text"`
	ResolverID      *uint64
	ResolvedAt      *time.Time
	CreatedAt       time.Time `gorm:"index"`
	ExpiresAt       time.Time
}

const (
	ReportEventCreated     = "created"
	ReportEventPostRemoved = "post_removed"
)

// ReportEvent 举报生命周期事件，只追加不删除。
// 统计按举报创建日分桶，举报行被清理后口径不变。
type ReportEvent struct {
	ID              uint64 `gorm:"primaryKey"`
	CommunityID     uint64 `gorm:"not null;index"`
	ReportID        uint64 `gorm:"not null"`
	Event           string `gorm:"size:20;not null"`
	ReportCreatedAt time.Time
	CreatedAt       time.Time
}

func (ReportEvent) TableName() string { return "report_events" }
