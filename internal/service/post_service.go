package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subgreddiit/internal/model"
	"subgreddiit/internal/repository/mysql"
	"subgreddiit/internal/repository/redis"

	"gorm.io/gorm"
)

type PostService struct {
	repo       *mysql.PostRepository
	commRepo   *mysql.CommunityRepository
	memberRepo *mysql.CommunityMemberRepository
	blockRepo  *mysql.CommunityBlockRepository
	cache      *redis.CommunityCacheRepository
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		repo:       &mysql.PostRepository{DB: db},
		commRepo:   &mysql.CommunityRepository{DB: db},
		memberRepo: &mysql.CommunityMemberRepository{DB: db},
		blockRepo:  &mysql.CommunityBlockRepository{DB: db},
		cache:      redis.NewCommunityCacheRepository(),
	}
}

// containsBannedKeyword 命中任意违禁词即拒绝发帖
func containsBannedKeyword(community *model.Community, title, content string) (string, bool) {
	text := strings.ToLower(title + " " + content)
	for _, kw := range splitList(community.BannedKeywords) {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func (s *PostService) Create(ctx context.Context, userID, communityID uint64, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return nil, fmt.Errorf("%w: title required, at most 200 chars", ErrValidation)
	}

	community, err := s.commRepo.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: community", ErrNotFound)
		}
		return nil, err
	}

	ok, err := s.memberRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member", ErrNotAuthorized)
	}
	blocked, err := s.blockRepo.IsBlocked(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: user is blocked", ErrNotAuthorized)
	}

	if kw, hit := containsBannedKeyword(community, title, content); hit {
		return nil, fmt.Errorf("%w: banned keyword %q", ErrValidation, kw)
	}

	post := &model.Post{
		CommunityID: communityID,
		AuthorID:    userID,
		Title:       title,
		Content:     content,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	// 计数写 DB，缓存同步增，最终一致
	_ = s.commRepo.IncrPostsCount(ctx, communityID, +1)
	_ = s.cache.IncrPostsCount(ctx, communityID, +1)

	return post, nil
}

// ListByCommunity 社区帖子列表
func (s *PostService) ListByCommunity(ctx context.Context, communityID uint64, page, size int) ([]model.Post, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}

	offset := (page - 1) * size
	return s.repo.ListByCommunity(ctx, communityID, offset, size)
}

// ListByCommunityCursor 游标分页：首次不传 lastID/lastCreatedAt（或传 0）
func (s *PostService) ListByCommunityCursor(ctx context.Context, communityID uint64, lastID uint64, lastCreatedAt int64, size int) ([]model.Post, uint64, int64, error) {
	if size <= 0 || size > 50 {
		size = 20
	}
	var lastTime time.Time
	if lastCreatedAt > 0 {
		lastTime = time.Unix(lastCreatedAt, 0).UTC()
	}
	list, err := s.repo.ListByCommunityCursor(ctx, communityID, lastID, lastTime, size)
	if err != nil {
		return nil, 0, 0, err
	}
	var nextID uint64
	var nextTS int64
	if len(list) > 0 {
		last := list[len(list)-1]
		nextID = last.ID
		nextTS = last.CreatedAt.Unix()
	}
	return list, nextID, nextTS, nil
}

// Delete 幂等删除：成功/已删除均返回 nil；仅无权限时报错
func (s *PostService) Delete(ctx context.Context, userID, postID uint64) error {
	post, err := s.repo.FindByID(ctx, postID)
	alreadyGone := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !alreadyGone {
		return err
	}

	affected, err := s.repo.DeleteWithPermission(ctx, postID, userID)
	if err != nil {
		return err
	}
	if affected > 0 {
		_ = s.commRepo.IncrPostsCount(ctx, post.CommunityID, -1)
		_ = s.cache.IncrPostsCount(ctx, post.CommunityID, -1)
		return nil
	}
	if alreadyGone {
		return nil
	}
	// 还能读到帖子但没删成，说明无权限
	if _, err := s.repo.FindByID(ctx, postID); err == nil {
		return fmt.Errorf("%w: not author or moderator", ErrNotAuthorized)
	}
	return nil
}
