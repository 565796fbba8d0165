package mysql

import (
	"context"
	"time"

	"subgreddiit/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

type CommunityBlockRepository struct {
	DB *gorm.DB
}

type HistoryRepository struct {
	DB *gorm.DB
}

// Add 幂等插入成员；真正新增时追加一条成员历史。
// 返回 changed 表示本次是否真的加入（重复请求为 false）。
func (r *CommunityMemberRepository) Add(ctx context.Context, communityID, userID uint64, role int, now time.Time) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.CommunityMember{
			CommunityID: communityID,
			UserID:      userID,
			Role:        role,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return tx.Create(&model.MemberHistory{
			CommunityID: communityID,
			UserID:      userID,
			JoinedAt:    now,
		}).Error
	})
	return changed, err
}

// Remove 删除成员并封闭未结束的历史行（left_at 只写一次）
func (r *CommunityMemberRepository) Remove(ctx context.Context, communityID, userID uint64, now time.Time) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&model.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return tx.Model(&model.MemberHistory{}).
			Where("community_id = ? AND user_id = ? AND left_at IS NULL", communityID, userID).
			Update("left_at", now).Error
	})
	return changed, err
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *CommunityMemberRepository) IsModerator(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ? AND role >= ?", communityID, userID, model.RoleModerator).
		Count(&count).Error
	return count > 0, err
}

func (r *CommunityMemberRepository) List(ctx context.Context, communityID uint64) ([]model.CommunityMember, error) {
	var list []model.CommunityMember
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("id ASC").Find(&list).Error
	return list, err
}

// Block 幂等拉黑
func (r *CommunityBlockRepository) Block(ctx context.Context, communityID, userID uint64) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.CommunityBlock{
		CommunityID: communityID,
		UserID:      userID,
	}).Error
}

func (r *CommunityBlockRepository) IsBlocked(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityBlock{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *CommunityBlockRepository) ListBlocked(ctx context.Context, communityID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CommunityBlock{}).
		Where("community_id = ?", communityID).
		Order("id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *HistoryRepository) AddVisit(ctx context.Context, communityID, userID uint64, now time.Time) error {
	return r.DB.WithContext(ctx).Create(&model.VisitorHistory{
		CommunityID: communityID,
		UserID:      userID,
		VisitedAt:   now,
	}).Error
}

func (r *HistoryRepository) ListMemberHistory(ctx context.Context, communityID uint64) ([]model.MemberHistory, error) {
	var list []model.MemberHistory
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("joined_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *HistoryRepository) ListVisits(ctx context.Context, communityID uint64) ([]model.VisitorHistory, error) {
	var list []model.VisitorHistory
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("visited_at ASC, id ASC").Find(&list).Error
	return list, err
}
