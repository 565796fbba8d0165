package mysql

import (
	"context"
	"time"

	"subgreddiit/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ? AND status = ?", id, model.PostStatusNormal).Error
	return &post, err
}

// ListByCommunity 基础分页查询
func (r *PostRepository) ListByCommunity(ctx context.Context, communityID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, model.PostStatusNormal).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListByCommunityCursor 时间游标查询：先比时间，同一时间点用 id 打破并列
func (r *PostRepository) ListByCommunityCursor(ctx context.Context, communityID uint64, lastID uint64, lastCreatedAt time.Time, limit int) ([]model.Post, error) {
	var list []model.Post
	q := r.DB.WithContext(ctx).Where("community_id = ? AND status = ?", communityID, model.PostStatusNormal)
	if !lastCreatedAt.IsZero() {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", lastCreatedAt, lastCreatedAt, lastID)
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// Delete 软删除，幂等：已删除的行不再匹配，RowsAffected==0
func (r *PostRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND status = ?", id, model.PostStatusNormal).
		Update("status", model.PostStatusDeleted)
	return res.RowsAffected, res.Error
}

// Exists 不看状态的存在性检查，用于区分"已删"和"从来没有"
func (r *PostRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// DeleteWithPermission 一步带权限删除：作者或社区版主方可删；幂等。
// 子查询写法在 MySQL 和 SQLite 下行为一致。
func (r *PostRepository) DeleteWithPermission(ctx context.Context, postID, operatorID uint64) (affected int64, err error) {
	tx := r.DB.WithContext(ctx).Exec(`
		UPDATE posts SET status = 1
		WHERE id = ? AND status = 0
		  AND (author_id = ? OR EXISTS (
		       SELECT 1 FROM community_members m
		       WHERE m.community_id = posts.community_id AND m.user_id = ? AND m.role >= 1
		  ))`,
		postID, operatorID, operatorID,
	)
	return tx.RowsAffected, tx.Error
}

// ListCreatedAt 返回社区全部帖子的创建时间（含已删），统计用
func (r *PostRepository) ListCreatedAt(ctx context.Context, communityID uint64) ([]time.Time, error) {
	var times []time.Time
	err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("community_id = ?", communityID).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}
