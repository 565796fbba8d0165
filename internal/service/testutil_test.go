package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"subgreddiit/internal/model"
	"subgreddiit/internal/repository/mysql"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB 每个测试一个独立的内存库，cache=shared 防止连接池拿到空库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Community{},
		&model.CommunityMember{},
		&model.CommunityBlock{},
		&model.JoinRequest{},
		&model.MemberHistory{},
		&model.VisitorHistory{},
		&model.Post{},
		&model.Report{},
		&model.ReportEvent{},
		&model.Follow{},
		&model.SocialOutbox{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Password: "x", Email: name + "@test.local"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedCommunity(t *testing.T, db *gorm.DB, creatorID uint64, name string) *model.Community {
	t.Helper()
	svc := NewCommunityService(db)
	c, err := svc.Create(context.Background(), creatorID, CreateCommunityInput{
		Name:        name,
		Description: "a place to talk",
		IsPublic:    true,
	})
	require.NoError(t, err)
	return c
}

// joinCommunity 直接走成员仓库，绕过申请流程
func joinCommunity(t *testing.T, db *gorm.DB, communityID, userID uint64) {
	t.Helper()
	repo := &mysql.CommunityMemberRepository{DB: db}
	_, err := repo.Add(context.Background(), communityID, userID, model.RoleMember, time.Now().UTC())
	require.NoError(t, err)
}

func seedPost(t *testing.T, db *gorm.DB, communityID, authorID uint64, title string) *model.Post {
	t.Helper()
	svc := NewPostService(db)
	p, err := svc.Create(context.Background(), authorID, communityID, title, "content of "+title)
	require.NoError(t, err)
	return p
}

// backdate 直接改库里的时间字段，构造历史数据
func backdate(t *testing.T, db *gorm.DB, mdl any, id uint64, column string, ts time.Time) {
	t.Helper()
	require.NoError(t, db.Model(mdl).Where("id = ?", id).UpdateColumn(column, ts).Error)
}
