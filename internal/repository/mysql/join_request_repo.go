package mysql

import (
	"context"
	"time"

	"subgreddiit/internal/model"

	"gorm.io/gorm"
)

type JoinRequestRepository struct {
	DB *gorm.DB
}

func (r *JoinRequestRepository) Create(ctx context.Context, req *model.JoinRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *JoinRequestRepository) FindByID(ctx context.Context, communityID, requestID uint64) (*model.JoinRequest, error) {
	var req model.JoinRequest
	err := r.DB.WithContext(ctx).
		Where("id = ? AND community_id = ?", requestID, communityID).
		First(&req).Error
	return &req, err
}

// HasPending 是否存在未过期的 pending 申请
func (r *JoinRequestRepository) HasPending(ctx context.Context, communityID, userID uint64, now time.Time) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.JoinRequest{}).
		Where("community_id = ? AND user_id = ? AND status = ? AND expires_at > ?",
			communityID, userID, model.JoinRequestPending, now).
		Count(&count).Error
	return count > 0, err
}

// Resolve 条件更新做状态迁移：只有还在 pending 的行能被改掉，
// RowsAffected==0 说明已被并发处理（先写者赢）。
func (r *JoinRequestRepository) Resolve(ctx context.Context, requestID uint64, status int8, resolverID uint64, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.JoinRequest{}).
		Where("id = ? AND status = ?", requestID, model.JoinRequestPending).
		Updates(map[string]any{
			"status":      status,
			"resolver_id": resolverID,
			"resolved_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *JoinRequestRepository) ListPending(ctx context.Context, communityID uint64) ([]model.JoinRequest, error) {
	var list []model.JoinRequest
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, model.JoinRequestPending).
		Order("requested_at ASC, id ASC").Find(&list).Error
	return list, err
}

// DeleteExpiredPending 清理过期且无人处理的 pending 申请
func (r *JoinRequestRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.JoinRequestPending, now).
		Delete(&model.JoinRequest{})
	return res.RowsAffected, res.Error
}
