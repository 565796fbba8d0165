package service

import (
	"context"
	"testing"

	"subgreddiit/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	svc := NewFollowService(db)

	changed, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	// 重复关注不算变更，计数不重复加
	changed, err = svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	// 查询接收者不能复用已带主键的结构体
	var follower, followee model.User
	require.NoError(t, db.First(&follower, alice.ID).Error)
	assert.EqualValues(t, 1, follower.FollowingCount)
	require.NoError(t, db.First(&followee, bob.ID).Error)
	assert.EqualValues(t, 1, followee.FollowerCount)

	// 变更才进 outbox
	var n int64
	require.NoError(t, db.Model(&model.SocialOutbox{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	following, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)
}

func TestUnfollowIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	svc := NewFollowService(db)
	_, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	changed, err := svc.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = svc.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	var u model.User
	require.NoError(t, db.First(&u, alice.ID).Error)
	assert.EqualValues(t, 0, u.FollowingCount)

	// follow + unfollow 各一条事件
	var n int64
	require.NoError(t, db.Model(&model.SocialOutbox{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestFollowSelfRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	svc := NewFollowService(db)
	_, err := svc.Follow(ctx, alice.ID, alice.ID)
	assert.Error(t, err)
}

func TestOutboxRelayerMarksSent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	svc := NewFollowService(db)
	_, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	var sent []model.SocialOutbox
	sender := func(ctx context.Context, ob *model.SocialOutbox) error {
		sent = append(sent, *ob)
		return nil
	}
	relayer := NewOutboxRelayer(db, sender, zerolog.Nop())
	relayer.drainOnce(ctx)

	require.Len(t, sent, 1)
	assert.Equal(t, "follow", sent[0].EventType)

	var ob model.SocialOutbox
	require.NoError(t, db.First(&ob, sent[0].ID).Error)
	assert.EqualValues(t, 1, ob.Status)

	// 已投递的不再重复拉取
	sent = nil
	relayer.drainOnce(ctx)
	assert.Empty(t, sent)
}

func TestFollowCountReconcilerFixesDrift(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	svc := NewFollowService(db)
	_, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// 人为把冗余计数搞偏
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", alice.ID).
		UpdateColumn("following_count", 42).Error)

	reconciler := NewFollowCountReconciler(db, zerolog.Nop())
	reconciler.reconcileOnce(ctx)

	var u model.User
	require.NoError(t, db.First(&u, alice.ID).Error)
	assert.EqualValues(t, 1, u.FollowingCount)
}
