package model

import "time"

const (
	RoleMember    = 0
	RoleModerator = 1
)

const (
	JoinRequestPending  int8 = 0
	JoinRequestAccepted int8 = 1
	JoinRequestRejected int8 = 2
)

type Community struct {
	ID             uint64 `gorm:"primaryKey"`
	Name           string `gorm:"size:50;not null"`
	NameLower      string `gorm:"uniqueIndex;size:50;not null"` // 大小写不敏感唯一
	Description    string `gorm:"size:500;not null"`
	Image          string `gorm:"size:255"`
	BannedKeywords string `gorm:"type:text"` // 逗号分隔，统一小写
	Tags           string `gorm:"type:text"`
	CreatorID      uint64 `gorm:"not null;index"`
	// 不带 default 标签：带 default 的零值字段在 INSERT 时会被 gorm 省略，
	// 私有社区（false）会被写成库默认值
	IsPublic bool `gorm:"not null"`
	PostsCount     int64  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CommunityMember struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;uniqueIndex:uk_community_user"`
	UserID      uint64 `gorm:"not null;uniqueIndex:uk_community_user;index"`
	Role        int    `gorm:"not null;default:0"` // 0=member 1=moderator
	CreatedAt   time.Time
}

type CommunityBlock struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;uniqueIndex:uk_block_comm_user"`
	UserID      uint64 `gorm:"not null;uniqueIndex:uk_block_comm_user"`
	CreatedAt   time.Time
}

type JoinRequest struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index:idx_jr_comm_status,priority:1"`
	UserID      uint64 `gorm:"not null;index"`
	Status      int8   `gorm:"not null;default:0;index:idx_jr_comm_status,priority:2"`
	RequestedAt time.Time
	ExpiresAt   time.Time `gorm:"index"`
	ResolverID  *uint64
	ResolvedAt  *time.Time
}

// MemberHistory 成员进出流水，LeftAt 为空表示仍在社区
type MemberHistory struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index"`
	UserID      uint64 `gorm:"not null"`
	JoinedAt    time.Time
	LeftAt      *time.Time
}

func (MemberHistory) TableName() string { return "member_history" }

type VisitorHistory struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index"`
	UserID      uint64 `gorm:"not null"`
	VisitedAt   time.Time
}

func (VisitorHistory) TableName() string { return "visitor_history" }
