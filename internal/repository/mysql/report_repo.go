package mysql

import (
	"context"
	"time"

	"subgreddiit/internal/model"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

// Create 落举报记录并追加 created 事件（统计按创建日读事件表）
func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		return tx.Create(&model.ReportEvent{
			CommunityID:     report.CommunityID,
			ReportID:        report.ID,
			Event:           model.ReportEventCreated,
			ReportCreatedAt: report.CreatedAt,
		}).Error
	})
}

func (r *ReportRepository) FindByID(ctx context.Context, communityID, reportID uint64) (*model.Report, error) {
	var report model.Report
	err := r.DB.WithContext(ctx).
		Where("id = ? AND community_id = ?", reportID, communityID).
		First(&report).Error
	return &report, err
}

// Resolve 终态迁移：UPDATE ... WHERE status=Pending，
// RowsAffected==0 表示已被并发处理或已被清理
func (r *ReportRepository) Resolve(ctx context.Context, reportID uint64, status, action int8, resolverID uint64, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Report{}).
		Where("id = ? AND status = ?", reportID, model.ReportStatusPending).
		Updates(map[string]any{
			"status":      status,
			"action":      action,
			"resolver_id": resolverID,
			"resolved_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// DeletePending 删除仍在 pending 的举报（delete-post 专用），
// 同事务追加 post_removed 事件。输掉竞争时返回 false。
func (r *ReportRepository) DeletePending(ctx context.Context, report *model.Report) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", report.ID, model.ReportStatusPending).
			Delete(&model.Report{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Create(&model.ReportEvent{
			CommunityID:     report.CommunityID,
			ReportID:        report.ID,
			Event:           model.ReportEventPostRemoved,
			ReportCreatedAt: report.CreatedAt,
		}).Error
	})
	return deleted, err
}

func (r *ReportRepository) ListByCommunity(ctx context.Context, communityID uint64) ([]model.Report, error) {
	var list []model.Report
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// ListExpiredIDs 过期举报 ID，不管处理状态，清理任务逐条删
func (r *ReportRepository) ListExpiredIDs(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Report{}).
		Where("created_at < ?", cutoff).
		Order("id ASC").Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteByID 幂等删除：行已不在也算成功
func (r *ReportRepository) DeleteByID(ctx context.Context, reportID uint64) error {
	return r.DB.WithContext(ctx).Delete(&model.Report{}, reportID).Error
}

func (r *ReportRepository) ListEvents(ctx context.Context, communityID uint64) ([]model.ReportEvent, error) {
	var list []model.ReportEvent
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("report_created_at ASC, id ASC").Find(&list).Error
	return list, err
}
