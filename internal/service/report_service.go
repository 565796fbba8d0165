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

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PostStore 帖子存储的窄接口。delete-post 动作经过它，
// 删帖失败时举报必须留在 Pending。
type PostStore interface {
	// DeletePost 删除帖子；removed 表示本次调用真的删掉了行，
	// 已删除视为幂等成功（removed=false），不存在返回 ErrNotFound
	DeletePost(ctx context.Context, postID uint64) (removed bool, err error)
}

type mysqlPostStore struct {
	repo *mysql.PostRepository
}

func (s *mysqlPostStore) DeletePost(ctx context.Context, postID uint64) (bool, error) {
	affected, err := s.repo.Delete(ctx, postID)
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}
	// 没改到行：已软删算幂等成功，压根没有这个帖子才算 NotFound
	exists, err := s.repo.Exists(ctx, postID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("%w: post", ErrNotFound)
	}
	return false, nil
}

type ReportService struct {
	repo       *mysql.ReportRepository
	commRepo   *mysql.CommunityRepository
	memberRepo *mysql.CommunityMemberRepository
	blockRepo  *mysql.CommunityBlockRepository
	postRepo   *mysql.PostRepository
	posts      PostStore
	cache      *redis.CommunityCacheRepository
	ttl        time.Duration
}

// NewReportService ttl 为举报保留时长（配置 report_ttl_days，默认 10 天）
func NewReportService(db *gorm.DB, ttl time.Duration) *ReportService {
	postRepo := &mysql.PostRepository{DB: db}
	return &ReportService{
		repo:       &mysql.ReportRepository{DB: db},
		commRepo:   &mysql.CommunityRepository{DB: db},
		memberRepo: &mysql.CommunityMemberRepository{DB: db},
		blockRepo:  &mysql.CommunityBlockRepository{DB: db},
		postRepo:   postRepo,
		posts:      &mysqlPostStore{repo: postRepo},
		cache:      redis.NewCommunityCacheRepository(),
		ttl:        ttl,
	}
}

// WithPostStore 替换帖子存储实现（测试注入失败桩用）
func (s *ReportService) WithPostStore(ps PostStore) *ReportService {
	s.posts = ps
	return s
}

func (s *ReportService) TTL() time.Duration { return s.ttl }

// Create 任何用户都可以对帖子发起举报，落库时固化帖子快照
func (s *ReportService) Create(ctx context.Context, communityID, postID, reporterID uint64, reason string) (*model.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > 500 {
		return nil, fmt.Errorf("%w: reason required, at most 500 chars", ErrValidation)
	}

	if _, err := s.commRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: community", ErrNotFound)
		}
		return nil, err
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post", ErrNotFound)
		}
		return nil, err
	}
	if post.CommunityID != communityID {
		return nil, fmt.Errorf("%w: post not in community", ErrValidation)
	}

	now := time.Now().UTC()
	report := &model.Report{
		CommunityID:     communityID,
		PostID:          postID,
		ReporterID:      reporterID,
		ReportedID:      post.AuthorID,
		Reason:          reason,
		Status:          model.ReportStatusPending,
		Action:          model.ReportActionNone,
		SnapshotTitle:   post.Title,
		SnapshotContent: post.Content,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

type ReportView struct {
	ID                 uint64     `json:"id"`
	CommunityID        uint64     `json:"community_id"`
	PostID             uint64     `json:"post_id"`
	ReporterID         uint64     `json:"reporter_id"`
	ReportedID         uint64     `json:"reported_id,omitempty"`
	ReportedUserMasked bool       `json:"reported_user_masked"`
	Reason             string     `json:"reason"`
	Status             int8       `json:"status"`
	Action             int8       `json:"action"`
	SnapshotTitle      string     `json:"snapshot_title"`
	SnapshotContent    string     `json:"snapshot_content"`
	ResolverID         *uint64    `json:"resolver_id,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	ExpiresAt          time.Time  `json:"expires_at"`
	Overdue            bool       `json:"overdue"`
}

// List 举报列表。非版主视角下，被举报人若已被拉黑则隐去身份只留标记；
// overdue 只是读取瞬间的计算值，下一次读之前清理任务可能已把行删掉。
func (s *ReportService) List(ctx context.Context, communityID, viewerID uint64) ([]ReportView, error) {
	if _, err := s.commRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: community", ErrNotFound)
		}
		return nil, err
	}

	isMod, err := s.memberRepo.IsModerator(ctx, communityID, viewerID)
	if err != nil {
		return nil, err
	}

	reports, err := s.repo.ListByCommunity(ctx, communityID)
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

	cutoff := time.Now().UTC().Add(-s.ttl)
	views := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		masked := !isMod && blockedSet[r.ReportedID]
		v := ReportView{
			ID:                 r.ID,
			CommunityID:        r.CommunityID,
			PostID:             r.PostID,
			ReporterID:         r.ReporterID,
			ReportedUserMasked: masked,
			Reason:             r.Reason,
			Status:             r.Status,
			Action:             r.Action,
			SnapshotTitle:      r.SnapshotTitle,
			SnapshotContent:    r.SnapshotContent,
			ResolverID:         r.ResolverID,
			ResolvedAt:         r.ResolvedAt,
			CreatedAt:          r.CreatedAt,
			ExpiresAt:          r.ExpiresAt,
			Overdue:            r.CreatedAt.Before(cutoff),
		}
		if !masked {
			v.ReportedID = r.ReportedID
		}
		views = append(views, v)
	}
	return views, nil
}

// Ignore 版主动作：忽略举报
func (s *ReportService) Ignore(ctx context.Context, communityID, reportID, moderatorID uint64) error {
	if _, err := s.authorizeAndLoad(ctx, communityID, reportID, moderatorID); err != nil {
		return err
	}

	won, err := s.repo.Resolve(ctx, reportID,
		model.ReportStatusIgnored, model.ReportActionIgnored, moderatorID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !won {
		return s.loserError(ctx, communityID, reportID)
	}
	return nil
}

// BlockUser 版主动作：拉黑被举报人并落终态。拉黑不移除成员资格，
// 活跃成员列表负责把被拉黑的人过滤掉（与入社路径同一策略）。
func (s *ReportService) BlockUser(ctx context.Context, communityID, reportID, moderatorID uint64) error {
	report, err := s.authorizeAndLoad(ctx, communityID, reportID, moderatorID)
	if err != nil {
		return err
	}

	won, err := s.repo.Resolve(ctx, reportID,
		model.ReportStatusActionTaken, model.ReportActionUserBlocked, moderatorID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !won {
		return s.loserError(ctx, communityID, reportID)
	}

	return s.blockRepo.Block(ctx, communityID, report.ReportedID)
}

// DeletePost 版主动作：删帖并连带删除举报。先删帖再删举报：
// 删帖失败举报必须留在 Pending；帖子已不存在按成功处理。
func (s *ReportService) DeletePost(ctx context.Context, communityID, reportID, moderatorID uint64) error {
	report, err := s.authorizeAndLoad(ctx, communityID, reportID, moderatorID)
	if err != nil {
		return err
	}
	if report.Status != model.ReportStatusPending {
		return fmt.Errorf("%w: report", ErrAlreadyResolved)
	}

	// 帖子已不存在时照样把举报收掉
	removed, err := s.posts.DeletePost(ctx, report.PostID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: post store: %v", ErrDependency, err)
	}

	deleted, err := s.repo.DeletePending(ctx, report)
	if err != nil {
		return err
	}
	if !deleted {
		return s.loserError(ctx, communityID, reportID)
	}

	// 只有本次真的删掉帖子才动计数，作者先删过的已经减过一次
	if removed {
		_ = s.commRepo.IncrPostsCount(ctx, communityID, -1)
		_ = s.cache.IncrPostsCount(ctx, communityID, -1)
	}
	return nil
}

func (s *ReportService) authorizeAndLoad(ctx context.Context, communityID, reportID, moderatorID uint64) (*model.Report, error) {
	isMod, err := s.memberRepo.IsModerator(ctx, communityID, moderatorID)
	if err != nil {
		return nil, err
	}
	if !isMod {
		return nil, fmt.Errorf("%w: moderator required", ErrNotAuthorized)
	}

	report, err := s.repo.FindByID(ctx, communityID, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 可能刚被清理任务删掉，按普通 NotFound 返回
			return nil, fmt.Errorf("%w: report", ErrNotFound)
		}
		return nil, err
	}
	return report, nil
}

// loserError 条件更新没改到行：区分"已被处理"和"已被删除"
func (s *ReportService) loserError(ctx context.Context, communityID, reportID uint64) error {
	if _, err := s.repo.FindByID(ctx, communityID, reportID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: report", ErrNotFound)
		}
		return err
	}
	return fmt.Errorf("%w: report", ErrAlreadyResolved)
}

// ReportSweeper 过期清理任务：按 created_at < now-ttl 逐条删，
// 单条失败记日志继续，不中断整轮。与版主动作并发安全，
// 双方都按幂等删除处理竞态。
type ReportSweeper struct {
	reportSvc *ReportService
	jrSvc     *JoinRequestService
	interval  time.Duration
	batchSize int
	log       zerolog.Logger
}

func NewReportSweeper(reportSvc *ReportService, jrSvc *JoinRequestService, interval time.Duration, log zerolog.Logger) *ReportSweeper {
	return &ReportSweeper{
		reportSvc: reportSvc,
		jrSvc:     jrSvc,
		interval:  interval,
		batchSize: 500,
		log:       log,
	}
}

// Run 定时循环，ctx 取消即退出。单条删除各自原子，
// 中途取消不会留下半截状态，下一轮接着清。
func (s *ReportSweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce 清一轮，返回删掉的举报数
func (s *ReportSweeper) SweepOnce(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-s.reportSvc.ttl)

	var swept int
	ids, err := s.reportSvc.repo.ListExpiredIDs(ctx, cutoff, s.batchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep: list expired reports")
		return 0
	}
	for _, id := range ids {
		// 行已被并发删掉也算成功
		if err := s.reportSvc.repo.DeleteByID(ctx, id); err != nil {
			s.log.Error().Err(err).Uint64("report_id", id).Msg("sweep: delete report")
			continue
		}
		swept++
	}

	if n, err := s.jrSvc.CleanupExpired(ctx); err != nil {
		s.log.Error().Err(err).Msg("sweep: cleanup join requests")
	} else if n > 0 {
		s.log.Info().Int64("join_requests", n).Msg("sweep: expired join requests removed")
	}

	if swept > 0 {
		s.log.Info().Int("reports", swept).Time("cutoff", cutoff).Msg("sweep: expired reports removed")
	}
	return swept
}
