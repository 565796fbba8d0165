package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subgreddiit/internal/model"
	"subgreddiit/internal/repository/mysql"

	"gorm.io/gorm"
)

// JoinRequestExpiry 申请有效期，过期后仅作提示，仍需版主处理或清理任务删除
const JoinRequestExpiry = 24 * time.Hour

type JoinRequestService struct {
	repo       *mysql.JoinRequestRepository
	commRepo   *mysql.CommunityRepository
	memberRepo *mysql.CommunityMemberRepository
}

func NewJoinRequestService(db *gorm.DB) *JoinRequestService {
	return &JoinRequestService{
		repo:       &mysql.JoinRequestRepository{DB: db},
		commRepo:   &mysql.CommunityRepository{DB: db},
		memberRepo: &mysql.CommunityMemberRepository{DB: db},
	}
}

// Submit 提交入社申请。已是成员或已有未过期 pending 申请时拒绝。
func (s *JoinRequestService) Submit(ctx context.Context, communityID, userID uint64) (*model.JoinRequest, error) {
	if _, err := s.commRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: community", ErrNotFound)
		}
		return nil, err
	}

	isMember, err := s.memberRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, fmt.Errorf("%w: already a member", ErrDuplicate)
	}

	now := time.Now().UTC()
	hasPending, err := s.repo.HasPending(ctx, communityID, userID, now)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, fmt.Errorf("%w: pending request exists", ErrDuplicate)
	}

	req := &model.JoinRequest{
		CommunityID: communityID,
		UserID:      userID,
		Status:      model.JoinRequestPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(JoinRequestExpiry),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Accept 接受申请：条件更新迁移状态，赢者把申请人加进成员表。
// 并发双接受时输家拿到 ErrAlreadyResolved，成员插入幂等不会重复。
func (s *JoinRequestService) Accept(ctx context.Context, communityID, requestID, moderatorID uint64) error {
	req, err := s.authorizeAndLoad(ctx, communityID, requestID, moderatorID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	won, err := s.repo.Resolve(ctx, requestID, model.JoinRequestAccepted, moderatorID, now)
	if err != nil {
		return err
	}
	if !won {
		return fmt.Errorf("%w: request", ErrAlreadyResolved)
	}

	_, err = s.memberRepo.Add(ctx, communityID, req.UserID, model.RoleMember, now)
	return err
}

// Reject 拒绝申请，不动成员表
func (s *JoinRequestService) Reject(ctx context.Context, communityID, requestID, moderatorID uint64) error {
	if _, err := s.authorizeAndLoad(ctx, communityID, requestID, moderatorID); err != nil {
		return err
	}

	won, err := s.repo.Resolve(ctx, requestID, model.JoinRequestRejected, moderatorID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !won {
		return fmt.Errorf("%w: request", ErrAlreadyResolved)
	}
	return nil
}

func (s *JoinRequestService) authorizeAndLoad(ctx context.Context, communityID, requestID, moderatorID uint64) (*model.JoinRequest, error) {
	isMod, err := s.memberRepo.IsModerator(ctx, communityID, moderatorID)
	if err != nil {
		return nil, err
	}
	if !isMod {
		return nil, fmt.Errorf("%w: moderator required", ErrNotAuthorized)
	}

	req, err := s.repo.FindByID(ctx, communityID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: join request", ErrNotFound)
		}
		return nil, err
	}
	return req, nil
}

type JoinRequestView struct {
	model.JoinRequest
	Expired bool `json:"expired"`
}

// ListPending 列出 pending 申请。过期但未处理的仍然可见，带 expired 标记。
func (s *JoinRequestService) ListPending(ctx context.Context, communityID, moderatorID uint64) ([]JoinRequestView, error) {
	isMod, err := s.memberRepo.IsModerator(ctx, communityID, moderatorID)
	if err != nil {
		return nil, err
	}
	if !isMod {
		return nil, fmt.Errorf("%w: moderator required", ErrNotAuthorized)
	}

	list, err := s.repo.ListPending(ctx, communityID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	views := make([]JoinRequestView, 0, len(list))
	for _, req := range list {
		views = append(views, JoinRequestView{
			JoinRequest: req,
			Expired:     req.ExpiresAt.Before(now),
		})
	}
	return views, nil
}

// CleanupExpired 显式清理过期 pending 申请，由后台任务调用
func (s *JoinRequestService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredPending(ctx, time.Now().UTC())
}
