package mysql

import (
	"context"
	"strings"
	"time"

	"subgreddiit/internal/model"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Create 建社区并让创建者以版主身份加入（同一事务，含成员历史）
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		mRepo := &CommunityMemberRepository{DB: tx}
		if _, err := mRepo.Add(ctx, c.ID, c.CreatorID, model.RoleModerator, time.Now().UTC()); err != nil {
			return err
		}
		return nil
	})
}

func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).First(&community, id).Error
	return &community, err
}

func (r *CommunityRepository) FindByNameLower(ctx context.Context, nameLower string) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).Where("name_lower = ?", nameLower).First(&community).Error
	return &community, err
}

// Search 公开社区检索：名称前缀匹配，结果按 id 倒序
func (r *CommunityRepository) Search(ctx context.Context, namePrefix string, offset, limit int) ([]model.Community, error) {
	var list []model.Community
	q := r.DB.WithContext(ctx).Where("is_public = ?", true)
	if namePrefix != "" {
		q = q.Where("name_lower LIKE ?", strings.ToLower(namePrefix)+"%")
	}
	err := q.Order("id desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// SearchByTag 粗筛 LIKE，精确匹配在 service 层做（保持 SQL 可移植）
func (r *CommunityRepository) SearchByTag(ctx context.Context, tag string, limit int) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).
		Where("is_public = ? AND tags LIKE ?", true, "%"+strings.ToLower(tag)+"%").
		Order("id desc").Limit(limit).Find(&list).Error
	return list, err
}

func (r *CommunityRepository) ListByCreator(ctx context.Context, creatorID uint64) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).Where("creator_id = ?", creatorID).Order("id desc").Find(&list).Error
	return list, err
}

// IncrPostsCount 帖子计数增减，防负数交给对账
func (r *CommunityRepository) IncrPostsCount(ctx context.Context, id uint64, delta int64) error {
	return r.DB.WithContext(ctx).Model(&model.Community{}).
		Where("id = ?", id).
		UpdateColumn("posts_count", gorm.Expr("posts_count + ?", delta)).Error
}
