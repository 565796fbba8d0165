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

type CommunityService struct {
	repo       *mysql.CommunityRepository
	memberRepo *mysql.CommunityMemberRepository
	blockRepo  *mysql.CommunityBlockRepository
	histRepo   *mysql.HistoryRepository
	userRepo   *mysql.UserRepository
	cache      *redis.CommunityCacheRepository
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{
		repo:       &mysql.CommunityRepository{DB: db},
		memberRepo: &mysql.CommunityMemberRepository{DB: db},
		blockRepo:  &mysql.CommunityBlockRepository{DB: db},
		histRepo:   &mysql.HistoryRepository{DB: db},
		userRepo:   &mysql.UserRepository{DB: db},
		cache:      redis.NewCommunityCacheRepository(),
	}
}

// splitList 逗号拆分，统一小写去空白
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

type CreateCommunityInput struct {
	Name           string
	Description    string
	Image          string
	BannedKeywords string
	Tags           string
	IsPublic       bool
}

func (s *CommunityService) Create(ctx context.Context, creatorID uint64, in CreateCommunityInput) (*model.Community, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 3 || len(name) > 50 {
		return nil, fmt.Errorf("%w: name must be 3-50 chars", ErrValidation)
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" || len(desc) > 500 {
		return nil, fmt.Errorf("%w: description required, at most 500 chars", ErrValidation)
	}

	nameLower := strings.ToLower(name)
	if _, err := s.repo.FindByNameLower(ctx, nameLower); err == nil {
		return nil, fmt.Errorf("%w: community name already exists", ErrDuplicate)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	community := &model.Community{
		Name:           name,
		NameLower:      nameLower,
		Description:    desc,
		Image:          in.Image,
		BannedKeywords: joinList(splitList(in.BannedKeywords)),
		Tags:           joinList(splitList(in.Tags)),
		CreatorID:      creatorID,
		IsPublic:       in.IsPublic,
	}

	if err := s.repo.Create(ctx, community); err != nil {
		// 并发撞名时唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: community name already exists", ErrDuplicate)
		}
		return nil, err
	}
	return community, nil
}

// Get 读社区详情并记一条访问日志。私有社区仅成员可见。
func (s *CommunityService) Get(ctx context.Context, communityID, viewerID uint64) (*model.Community, error) {
	community, err := s.repo.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: community", ErrNotFound)
		}
		return nil, err
	}

	if !community.IsPublic {
		ok, err := s.memberRepo.IsMember(ctx, communityID, viewerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: private community", ErrNotAuthorized)
		}
	}

	// 访问日志失败不挡读路径
	_ = s.histRepo.AddVisit(ctx, communityID, viewerID, time.Now().UTC())

	// 帖子计数优先走缓存
	if cnt, err := s.cache.GetPostsCount(ctx, communityID); err == nil {
		community.PostsCount = cnt
	} else if errors.Is(err, redis.ErrPostsCntMiss) {
		_ = s.cache.SetPostsCount(ctx, communityID, community.PostsCount)
	}

	return community, nil
}

// Search 名称前缀 + 标签检索；标签在内存里做精确匹配
func (s *CommunityService) Search(ctx context.Context, namePrefix, tag string, page, size int) ([]model.Community, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}

	if tag != "" {
		coarse, err := s.repo.SearchByTag(ctx, tag, 200)
		if err != nil {
			return nil, err
		}
		want := strings.ToLower(strings.TrimSpace(tag))
		var out []model.Community
		for _, c := range coarse {
			for _, t := range splitList(c.Tags) {
				if t == want {
					out = append(out, c)
					break
				}
			}
		}
		return out, nil
	}

	offset := (page - 1) * size
	return s.repo.Search(ctx, namePrefix, offset, size)
}

func (s *CommunityService) ListMine(ctx context.Context, creatorID uint64) ([]model.Community, error) {
	return s.repo.ListByCreator(ctx, creatorID)
}

// Leave 退出社区。创建者不允许退出自己的社区。
func (s *CommunityService) Leave(ctx context.Context, communityID, userID uint64) error {
	community, err := s.repo.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: community", ErrNotFound)
		}
		return err
	}
	if community.CreatorID == userID {
		return fmt.Errorf("%w: creator cannot leave", ErrValidation)
	}
	_, err = s.memberRepo.Remove(ctx, communityID, userID, time.Now().UTC())
	return err
}

type CommunityUsers struct {
	Active  []model.User `json:"active"`
	Blocked []model.User `json:"blocked"`
}

// Users 成员列表，按拉黑状态分栏。被拉黑的用户可能仍在成员表里，
// 只在 blocked 栏展示。
func (s *CommunityService) Users(ctx context.Context, communityID uint64) (*CommunityUsers, error) {
	if _, err := s.repo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: community", ErrNotFound)
		}
		return nil, err
	}

	members, err := s.memberRepo.List(ctx, communityID)
	if err != nil {
		return nil, err
	}
	blockedIDs, err := s.blockRepo.ListBlocked(ctx, communityID)
	if err != nil {
		return nil, err
	}

	blockedSet := make(map[uint64]bool, len(blockedIDs))
	for _, id := range blockedIDs {
		blockedSet[id] = true
	}

	var activeIDs []uint64
	for _, m := range members {
		if !blockedSet[m.UserID] {
			activeIDs = append(activeIDs, m.UserID)
		}
	}

	active, err := s.userRepo.FindByIDs(activeIDs)
	if err != nil {
		return nil, err
	}
	blocked, err := s.userRepo.FindByIDs(blockedIDs)
	if err != nil {
		return nil, err
	}
	for i := range active {
		active[i].Password = ""
	}
	for i := range blocked {
		blocked[i].Password = ""
	}
	return &CommunityUsers{Active: active, Blocked: blocked}, nil
}
