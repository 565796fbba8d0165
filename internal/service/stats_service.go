package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"subgreddiit/internal/model"
	"subgreddiit/internal/repository/mysql"

	"gorm.io/gorm"
)

const dayKeyLayout = "2006-01-02"

// DayCount 单日计数
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// MembersPoint 某日结束时的成员总数（按事件日累计）
type MembersPoint struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
}

// ReportDayCount 按举报创建日统计：当日新增举报数 / 其中最终被删帖的数量
type ReportDayCount struct {
	Day      string `json:"day"`
	Reported int64  `json:"reported"`
	Deleted  int64  `json:"deleted"`
}

// CommunityStats 四条时间序列，天粒度（UTC 日历日），升序。
// 没有活动的日子不补零点。
type CommunityStats struct {
	MembersOverTime   []MembersPoint   `json:"members_over_time"`
	DailyPosts        []DayCount       `json:"daily_posts"`
	DailyVisitors     []DayCount       `json:"daily_visitors"`
	ReportedVsDeleted []ReportDayCount `json:"reported_vs_deleted"`
}

// StatsService 只读统计，回放历史日志在内存里按天分桶。
// 读路径不阻塞写，允许读到正在被并发修改的旧状态。
type StatsService struct {
	commRepo   *mysql.CommunityRepository
	memberRepo *mysql.CommunityMemberRepository
	histRepo   *mysql.HistoryRepository
	reportRepo *mysql.ReportRepository
	postRepo   *mysql.PostRepository
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		commRepo:   &mysql.CommunityRepository{DB: db},
		memberRepo: &mysql.CommunityMemberRepository{DB: db},
		histRepo:   &mysql.HistoryRepository{DB: db},
		reportRepo: &mysql.ReportRepository{DB: db},
		postRepo:   &mysql.PostRepository{DB: db},
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

func (s *StatsService) GetCommunityStats(ctx context.Context, communityID, viewerID uint64) (*CommunityStats, error) {
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
	if !isMod {
		return nil, fmt.Errorf("%w: moderator required", ErrNotAuthorized)
	}

	members, err := s.membersOverTime(ctx, communityID)
	if err != nil {
		return nil, err
	}
	posts, err := s.dailyPosts(ctx, communityID)
	if err != nil {
		return nil, err
	}
	visitors, err := s.dailyVisitors(ctx, communityID)
	if err != nil {
		return nil, err
	}
	reported, err := s.reportedVsDeleted(ctx, communityID)
	if err != nil {
		return nil, err
	}

	return &CommunityStats{
		MembersOverTime:   members,
		DailyPosts:        posts,
		DailyVisitors:     visitors,
		ReportedVsDeleted: reported,
	}, nil
}

// membersOverTime 回放成员历史：加入日 +1、离开日 -1，
// 按日累计出单调一致的在册人数
func (s *StatsService) membersOverTime(ctx context.Context, communityID uint64) ([]MembersPoint, error) {
	history, err := s.histRepo.ListMemberHistory(ctx, communityID)
	if err != nil {
		return nil, err
	}

	deltas := make(map[string]int64)
	for _, h := range history {
		deltas[dayKey(h.JoinedAt)]++
		if h.LeftAt != nil {
			deltas[dayKey(*h.LeftAt)]--
		}
	}

	days := sortedKeys(deltas)
	var total int64
	points := make([]MembersPoint, 0, len(days))
	for _, d := range days {
		total += deltas[d]
		points = append(points, MembersPoint{Day: d, Total: total})
	}
	return points, nil
}

func (s *StatsService) dailyPosts(ctx context.Context, communityID uint64) ([]DayCount, error) {
	times, err := s.postRepo.ListCreatedAt(ctx, communityID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, t := range times {
		counts[dayKey(t)]++
	}
	return toDayCounts(counts), nil
}

// dailyVisitors 不按用户去重，同一人同日多次访问多次计数
func (s *StatsService) dailyVisitors(ctx context.Context, communityID uint64) ([]DayCount, error) {
	visits, err := s.histRepo.ListVisits(ctx, communityID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, v := range visits {
		counts[dayKey(v.VisitedAt)]++
	}
	return toDayCounts(counts), nil
}

// reportedVsDeleted 从事件日志统计，按举报创建日分桶，
// 举报行本身被删掉也不影响口径
func (s *StatsService) reportedVsDeleted(ctx context.Context, communityID uint64) ([]ReportDayCount, error) {
	events, err := s.reportRepo.ListEvents(ctx, communityID)
	if err != nil {
		return nil, err
	}

	type pair struct{ reported, deleted int64 }
	counts := make(map[string]*pair)
	for _, e := range events {
		d := dayKey(e.ReportCreatedAt)
		p := counts[d]
		if p == nil {
			p = &pair{}
			counts[d] = p
		}
		switch e.Event {
		case model.ReportEventCreated:
			p.reported++
		case model.ReportEventPostRemoved:
			p.deleted++
		}
	}

	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]ReportDayCount, 0, len(days))
	for _, d := range days {
		out = append(out, ReportDayCount{Day: d, Reported: counts[d].reported, Deleted: counts[d].deleted})
	}
	return out, nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toDayCounts(counts map[string]int64) []DayCount {
	days := sortedKeys(counts)
	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		out = append(out, DayCount{Day: d, Count: counts[d]})
	}
	return out
}
