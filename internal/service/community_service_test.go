package service

import (
	"context"
	"testing"

	"subgreddiit/internal/model"
	"subgreddiit/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityCreateValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, db, "creator")
	svc := NewCommunityService(db)

	_, err := svc.Create(ctx, creator.ID, CreateCommunityInput{Name: "ab", Description: "desc"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, creator.ID, CreateCommunityInput{Name: "gophers", Description: ""})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCommunityCreateMakesCreatorModerator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, db, "creator")

	community := seedCommunity(t, db, creator.ID, "gophers")

	memberRepo := &mysql.CommunityMemberRepository{DB: db}
	isMod, err := memberRepo.IsModerator(ctx, community.ID, creator.ID)
	require.NoError(t, err)
	assert.True(t, isMod)

	// 创建即有一条成员历史
	var n int64
	require.NoError(t, db.Model(&model.MemberHistory{}).
		Where("community_id = ? AND user_id = ?", community.ID, creator.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCommunityNameUniqueCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, db, "creator")
	svc := NewCommunityService(db)

	_, err := svc.Create(ctx, creator.ID, CreateCommunityInput{Name: "GoLang", Description: "desc"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, creator.ID, CreateCommunityInput{Name: "golang", Description: "desc"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCommunityPrivateVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, db, "creator")
	member := seedUser(t, db, "member")
	outsider := seedUser(t, db, "outsider")

	svc := NewCommunityService(db)
	community, err := svc.Create(ctx, creator.ID, CreateCommunityInput{
		Name: "secret-club", Description: "invite only", IsPublic: false,
	})
	require.NoError(t, err)
	joinCommunity(t, db, community.ID, member.ID)

	// 私有标记落库后仍是 false
	var stored model.Community
	require.NoError(t, db.First(&stored, community.ID).Error)
	assert.False(t, stored.IsPublic)

	_, err = svc.Get(ctx, community.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	got, err := svc.Get(ctx, community.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, community.ID, got.ID)

	// 私有社区不出现在检索里
	list, err := svc.Search(ctx, "secret", "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommunitySearchByTag(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, db, "creator")
	svc := NewCommunityService(db)

	_, err := svc.Create(ctx, creator.ID, CreateCommunityInput{
		Name: "gophers", Description: "desc", Tags: "go,backend", IsPublic: true,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, creator.ID, CreateCommunityInput{
		Name: "django", Description: "desc", Tags: "golang-adjacent", IsPublic: true,
	})
	require.NoError(t, err)

	// 标签精确匹配："go" 不命中 "golang-adjacent"
	list, err := svc.Search(ctx, "", "go", 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "gophers", list[0].Name)
}

func TestCommunityLeave(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, db, "creator")
	member := seedUser(t, db, "member")
	community := seedCommunity(t, db, creator.ID, "gophers")
	joinCommunity(t, db, community.ID, member.ID)

	svc := NewCommunityService(db)

	// 创建者不能退出自己的社区
	assert.ErrorIs(t, svc.Leave(ctx, community.ID, creator.ID), ErrValidation)

	require.NoError(t, svc.Leave(ctx, community.ID, member.ID))

	memberRepo := &mysql.CommunityMemberRepository{DB: db}
	isMember, err := memberRepo.IsMember(ctx, community.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	// 退出封闭成员历史
	var hist model.MemberHistory
	require.NoError(t, db.Where("community_id = ? AND user_id = ?", community.ID, member.ID).First(&hist).Error)
	assert.NotNil(t, hist.LeftAt)

	// 重复退出幂等
	assert.NoError(t, svc.Leave(ctx, community.ID, member.ID))
}

func TestCommunityUsersSplitsBlocked(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creator := seedUser(t, db, "creator")
	member := seedUser(t, db, "member")
	troll := seedUser(t, db, "troll")
	community := seedCommunity(t, db, creator.ID, "gophers")
	joinCommunity(t, db, community.ID, member.ID)
	joinCommunity(t, db, community.ID, troll.ID)

	blockRepo := &mysql.CommunityBlockRepository{DB: db}
	require.NoError(t, blockRepo.Block(ctx, community.ID, troll.ID))

	svc := NewCommunityService(db)
	users, err := svc.Users(ctx, community.ID)
	require.NoError(t, err)

	activeNames := make([]string, 0, len(users.Active))
	for _, u := range users.Active {
		activeNames = append(activeNames, u.Username)
		assert.Empty(t, u.Password)
	}
	assert.ElementsMatch(t, []string{"creator", "member"}, activeNames)

	require.Len(t, users.Blocked, 1)
	assert.Equal(t, "troll", users.Blocked[0].Username)
	assert.Empty(t, users.Blocked[0].Password)
}
