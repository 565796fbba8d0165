package service

import (
	"context"
	"testing"
	"time"

	"subgreddiit/internal/model"
	"subgreddiit/internal/repository/mysql"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRequireModerator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	creator := seedUser(t, db, "creator")
	member := seedUser(t, db, "member")
	community := seedCommunity(t, db, creator.ID, "gophers")
	joinCommunity(t, db, community.ID, member.ID)

	svc := NewStatsService(db)

	_, err := svc.GetCommunityStats(ctx, community.ID, member.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.GetCommunityStats(ctx, 99999, creator.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetCommunityStats(ctx, community.ID, creator.ID)
	assert.NoError(t, err)
}

func TestStatsMembersOverTime(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	creator := seedUser(t, db, "creator")
	user := seedUser(t, db, "wanderer")
	community := seedCommunity(t, db, creator.ID, "gophers")

	day := func(offset int) time.Time {
		return time.Date(2026, 8, 1+offset, 12, 0, 0, 0, time.UTC)
	}

	// 创建者的历史行归到 day0，保证序列确定
	var creatorHist model.MemberHistory
	require.NoError(t, db.Where("community_id = ? AND user_id = ?", community.ID, creator.ID).First(&creatorHist).Error)
	backdate(t, db, &model.MemberHistory{}, creatorHist.ID, "joined_at", day(0))

	// 加入(day1) → 离开(day3) → 再加入(day5)
	memberRepo := &mysql.CommunityMemberRepository{DB: db}
	_, err := memberRepo.Add(ctx, community.ID, user.ID, model.RoleMember, day(1))
	require.NoError(t, err)
	_, err = memberRepo.Remove(ctx, community.ID, user.ID, day(3))
	require.NoError(t, err)
	_, err = memberRepo.Add(ctx, community.ID, user.ID, model.RoleMember, day(5))
	require.NoError(t, err)

	stats, err := NewStatsService(db).GetCommunityStats(ctx, community.ID, creator.ID)
	require.NoError(t, err)

	points := stats.MembersOverTime
	require.Len(t, points, 4)
	assert.Equal(t, MembersPoint{Day: "2026-08-01", Total: 1}, points[0]) // 创建者
	assert.Equal(t, MembersPoint{Day: "2026-08-02", Total: 2}, points[1]) // +wanderer
	assert.Equal(t, MembersPoint{Day: "2026-08-04", Total: 1}, points[2]) // 离开
	assert.Equal(t, MembersPoint{Day: "2026-08-06", Total: 2}, points[3]) // 回归
}

func TestStatsDailyPostsAndVisitors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	creator := seedUser(t, db, "creator")
	community := seedCommunity(t, db, creator.ID, "gophers")

	d1 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 11, 9, 0, 0, 0, time.UTC)

	p1 := seedPost(t, db, community.ID, creator.ID, "one")
	p2 := seedPost(t, db, community.ID, creator.ID, "two")
	p3 := seedPost(t, db, community.ID, creator.ID, "three")
	backdate(t, db, &model.Post{}, p1.ID, "created_at", d1)
	backdate(t, db, &model.Post{}, p2.ID, "created_at", d1)
	backdate(t, db, &model.Post{}, p3.ID, "created_at", d2)

	// 同一人同日两次访问算两次
	histRepo := &mysql.HistoryRepository{DB: db}
	require.NoError(t, histRepo.AddVisit(ctx, community.ID, creator.ID, d1))
	require.NoError(t, histRepo.AddVisit(ctx, community.ID, creator.ID, d1.Add(time.Hour)))
	require.NoError(t, histRepo.AddVisit(ctx, community.ID, creator.ID, d2))

	stats, err := NewStatsService(db).GetCommunityStats(ctx, community.ID, creator.ID)
	require.NoError(t, err)

	assert.Equal(t, []DayCount{
		{Day: "2026-08-10", Count: 2},
		{Day: "2026-08-11", Count: 1},
	}, stats.DailyPosts)
	assert.Equal(t, []DayCount{
		{Day: "2026-08-10", Count: 2},
		{Day: "2026-08-11", Count: 1},
	}, stats.DailyVisitors)
}

func TestStatsReportedVsDeleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	creator := seedUser(t, db, "creator")
	author := seedUser(t, db, "author")
	reporter := seedUser(t, db, "reporter")
	community := seedCommunity(t, db, creator.ID, "gophers")
	joinCommunity(t, db, community.ID, author.ID)
	joinCommunity(t, db, community.ID, reporter.ID)

	p1 := seedPost(t, db, community.ID, author.ID, "one")
	p2 := seedPost(t, db, community.ID, author.ID, "two")

	reportSvc := NewReportService(db, testReportTTL)
	r1, err := reportSvc.Create(ctx, community.ID, p1.ID, reporter.ID, "spam")
	require.NoError(t, err)
	_, err = reportSvc.Create(ctx, community.ID, p2.ID, reporter.ID, "spam")
	require.NoError(t, err)

	require.NoError(t, reportSvc.DeletePost(ctx, community.ID, r1.ID, creator.ID))

	stats, err := NewStatsService(db).GetCommunityStats(ctx, community.ID, creator.ID)
	require.NoError(t, err)

	// 两条举报同一天创建，其中一条走了删帖
	require.Len(t, stats.ReportedVsDeleted, 1)
	assert.EqualValues(t, 2, stats.ReportedVsDeleted[0].Reported)
	assert.EqualValues(t, 1, stats.ReportedVsDeleted[0].Deleted)

	// 举报行被清理后口径不变
	sweeper := NewReportSweeper(reportSvc, NewJoinRequestService(db), time.Hour, zerolog.Nop())
	require.NoError(t, db.Model(&model.Report{}).
		Where("community_id = ?", community.ID).
		UpdateColumn("created_at", time.Now().UTC().Add(-11*24*time.Hour)).Error)
	sweeper.SweepOnce(ctx)

	stats, err = NewStatsService(db).GetCommunityStats(ctx, community.ID, creator.ID)
	require.NoError(t, err)
	require.Len(t, stats.ReportedVsDeleted, 1)
	assert.EqualValues(t, 2, stats.ReportedVsDeleted[0].Reported)
	assert.EqualValues(t, 1, stats.ReportedVsDeleted[0].Deleted)
}
