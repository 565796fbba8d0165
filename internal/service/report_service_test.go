package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"subgreddiit/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testReportTTL = 10 * 24 * time.Hour

type reportFixture struct {
	db        *gorm.DB
	svc       *ReportService
	creator   *model.User
	author    *model.User
	reporter  *model.User
	community *model.Community
	post      *model.Post
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	db := newTestDB(t)

	creator := seedUser(t, db, "creator")
	author := seedUser(t, db, "author")
	reporter := seedUser(t, db, "reporter")
	community := seedCommunity(t, db, creator.ID, "gophers")
	joinCommunity(t, db, community.ID, author.ID)
	joinCommunity(t, db, community.ID, reporter.ID)
	post := seedPost(t, db, community.ID, author.ID, "hello world")

	return &reportFixture{
		db:        db,
		svc:       NewReportService(db, testReportTTL),
		creator:   creator,
		author:    author,
		reporter:  reporter,
		community: community,
		post:      post,
	}
}

func TestReportCreateSnapshots(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	assert.Equal(t, model.ReportStatusPending, report.Status)
	assert.Equal(t, model.ReportActionNone, report.Action)
	assert.Equal(t, f.author.ID, report.ReportedID)
	assert.Equal(t, f.post.Title, report.SnapshotTitle)
	assert.Equal(t, f.post.Content, report.SnapshotContent)
	assert.Nil(t, report.ResolverID)
	assert.Nil(t, report.ResolvedAt)
	assert.WithinDuration(t, report.CreatedAt.Add(testReportTTL), report.ExpiresAt, time.Second)
}

func TestReportCreateValidation(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Create(ctx, f.community.ID, 99999, f.reporter.ID, "spam")
	assert.ErrorIs(t, err, ErrNotFound)

	// 帖子不属于该社区
	other := seedCommunity(t, f.db, f.creator.ID, "other")
	_, err = f.svc.Create(ctx, other.ID, f.post.ID, f.reporter.ID, "spam")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportIgnore(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	require.NoError(t, f.svc.Ignore(ctx, f.community.ID, report.ID, f.creator.ID))

	var stored model.Report
	require.NoError(t, f.db.First(&stored, report.ID).Error)
	assert.Equal(t, model.ReportStatusIgnored, stored.Status)
	assert.Equal(t, model.ReportActionIgnored, stored.Action)
	require.NotNil(t, stored.ResolverID)
	assert.Equal(t, f.creator.ID, *stored.ResolverID)
	assert.NotNil(t, stored.ResolvedAt)

	// 已处理的举报再处理一次
	assert.ErrorIs(t, f.svc.Ignore(ctx, f.community.ID, report.ID, f.creator.ID), ErrAlreadyResolved)
	assert.ErrorIs(t, f.svc.BlockUser(ctx, f.community.ID, report.ID, f.creator.ID), ErrAlreadyResolved)
	assert.ErrorIs(t, f.svc.DeletePost(ctx, f.community.ID, report.ID, f.creator.ID), ErrAlreadyResolved)
}

func TestReportActionsRequireModerator(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Ignore(ctx, f.community.ID, report.ID, f.reporter.ID), ErrNotAuthorized)
	assert.ErrorIs(t, f.svc.BlockUser(ctx, f.community.ID, report.ID, f.author.ID), ErrNotAuthorized)
}

func TestReportBlockUserAndMasking(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	require.NoError(t, f.svc.BlockUser(ctx, f.community.ID, report.ID, f.creator.ID))

	var stored model.Report
	require.NoError(t, f.db.First(&stored, report.ID).Error)
	assert.Equal(t, model.ReportStatusActionTaken, stored.Status)
	assert.Equal(t, model.ReportActionUserBlocked, stored.Action)

	// 拉黑不移除成员资格
	var n int64
	require.NoError(t, f.db.Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", f.community.ID, f.author.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// 非版主视角：被拉黑的被举报人身份被遮蔽
	views, err := f.svc.List(ctx, f.community.ID, f.reporter.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].ReportedUserMasked)
	assert.Zero(t, views[0].ReportedID)
	assert.Equal(t, f.post.Title, views[0].SnapshotTitle)

	// 版主视角不遮蔽
	views, err = f.svc.List(ctx, f.community.ID, f.creator.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].ReportedUserMasked)
	assert.Equal(t, f.author.ID, views[0].ReportedID)
}

func TestReportDeletePost(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePost(ctx, f.community.ID, report.ID, f.creator.ID))

	// 帖子软删
	var post model.Post
	require.NoError(t, f.db.First(&post, f.post.ID).Error)
	assert.Equal(t, model.PostStatusDeleted, post.Status)

	// 举报行连带删除
	err = f.db.First(&model.Report{}, report.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 事件表留下 created + post_removed 两条
	var events []model.ReportEvent
	require.NoError(t, f.db.Where("report_id = ?", report.ID).Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, model.ReportEventCreated, events[0].Event)
	assert.Equal(t, model.ReportEventPostRemoved, events[1].Event)

	// 再操作这条举报拿 NotFound
	assert.ErrorIs(t, f.svc.Ignore(ctx, f.community.ID, report.ID, f.creator.ID), ErrNotFound)

	// 帖子计数减到 0，不会更少
	var community model.Community
	require.NoError(t, f.db.First(&community, f.community.ID).Error)
	assert.EqualValues(t, 0, community.PostsCount)
}

type failingPostStore struct{}

func (failingPostStore) DeletePost(ctx context.Context, postID uint64) (bool, error) {
	return false, errors.New("storage down")
}

func TestReportDeletePostFailureKeepsPending(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	f.svc.WithPostStore(failingPostStore{})
	err = f.svc.DeletePost(ctx, f.community.ID, report.ID, f.creator.ID)
	assert.ErrorIs(t, err, ErrDependency)

	// 删帖失败，举报必须留在 pending
	var stored model.Report
	require.NoError(t, f.db.First(&stored, report.ID).Error)
	assert.Equal(t, model.ReportStatusPending, stored.Status)

	var post model.Post
	require.NoError(t, f.db.First(&post, f.post.ID).Error)
	assert.Equal(t, model.PostStatusNormal, post.Status)
}

func TestReportDeletePostWhenPostAlreadyGone(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	// 作者先自己删掉了帖子
	require.NoError(t, NewPostService(f.db).Delete(ctx, f.author.ID, f.post.ID))

	// 举报照样能收掉
	require.NoError(t, f.svc.DeletePost(ctx, f.community.ID, report.ID, f.creator.ID))
	err = f.db.First(&model.Report{}, report.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 作者自删时已经减过计数，这里不能再减成负数
	var community model.Community
	require.NoError(t, f.db.First(&community, f.community.ID).Error)
	assert.EqualValues(t, 0, community.PostsCount)
}

func TestReportOverdueFlag(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "spam")
	require.NoError(t, err)

	backdate(t, f.db, &model.Report{}, report.ID, "created_at", time.Now().UTC().Add(-testReportTTL-time.Hour))

	views, err := f.svc.List(ctx, f.community.ID, f.creator.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Overdue)
}

func TestReportSweeper(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	post2 := seedPost(t, f.db, f.community.ID, f.author.ID, "second post")

	old, err := f.svc.Create(ctx, f.community.ID, f.post.ID, f.reporter.ID, "old spam")
	require.NoError(t, err)
	fresh, err := f.svc.Create(ctx, f.community.ID, post2.ID, f.reporter.ID, "fresh spam")
	require.NoError(t, err)

	// 11 天前的清掉，9 天前的保留
	backdate(t, f.db, &model.Report{}, old.ID, "created_at", time.Now().UTC().Add(-11*24*time.Hour))
	backdate(t, f.db, &model.Report{}, fresh.ID, "created_at", time.Now().UTC().Add(-9*24*time.Hour))

	sweeper := NewReportSweeper(f.svc, NewJoinRequestService(f.db), time.Hour, zerolog.Nop())
	swept := sweeper.SweepOnce(ctx)
	assert.Equal(t, 1, swept)

	err = f.db.First(&model.Report{}, old.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, f.db.First(&model.Report{}, fresh.ID).Error)

	// 清理过的举报版主再处理拿 NotFound，而不是 AlreadyResolved
	assert.ErrorIs(t, f.svc.Ignore(ctx, f.community.ID, old.ID, f.creator.ID), ErrNotFound)

	// 已处理的过期举报同样会被清
	require.NoError(t, f.svc.Ignore(ctx, f.community.ID, fresh.ID, f.creator.ID))
	backdate(t, f.db, &model.Report{}, fresh.ID, "created_at", time.Now().UTC().Add(-11*24*time.Hour))
	assert.Equal(t, 1, sweeper.SweepOnce(ctx))
}
