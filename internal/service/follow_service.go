package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"subgreddiit/internal/model"
	"subgreddiit/internal/pkg"
	"subgreddiit/internal/repository/mysql"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type FollowService struct {
	repo *mysql.FollowRepository
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		repo: &mysql.FollowRepository{DB: db},
	}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	if followerID == 0 || followeeID == 0 {
		return false, errors.New("invalid user id")
	}
	if followerID == followeeID {
		return false, errors.New("cannot follow self")
	}
	return s.repo.Follow(ctx, followerID, followeeID)
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	if followerID == 0 || followeeID == 0 {
		return false, errors.New("invalid user id")
	}
	if followerID == followeeID {
		return false, errors.New("cannot unfollow self")
	}
	return s.repo.Unfollow(ctx, followerID, followeeID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	if followerID == 0 || followeeID == 0 {
		return false, errors.New("invalid user id")
	}
	return s.repo.IsFollowing(ctx, followerID, followeeID)
}

func (s *FollowService) ListFollowings(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	return s.repo.ListFollowings(ctx, userID, cursor, limit)
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	return s.repo.ListFollowers(ctx, userID, cursor, limit)
}

type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer 从 outbox 表批量取事件异步投递到 Kafka
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       zerolog.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, log zerolog.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
		log:       log,
	}
}

// KafkaSender 把 outbox 事件投到 Kafka，按 follower 取 key 保序
func KafkaSender(producer *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		payload, err := json.Marshal(map[string]any{
			"event_type": ob.EventType,
			"follower":   ob.Follower,
			"followee":   ob.Followee,
			"payload":    json.RawMessage(ob.Payload),
		})
		if err != nil {
			return err
		}
		return producer.Send(ctx, pkg.MakeKeyFromID(ob.Follower), payload)
	}
}

// Run outbox 启动器，ctx 取消即退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error().Err(err).Msg("outbox query")
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			r.log.Warn().Err(err).Uint64("outbox_id", ob.ID).Msg("outbox send")
			_ = r.repo.RetryUpdate(ctx, ob.ID)
			continue
		}
		_ = r.repo.SuccessUpdate(ctx, ob.ID)
	}
}

// FollowCountReconciler 定时对账 user 表冗余计数
type FollowCountReconciler struct {
	repo      *mysql.FollowCountReconcilerRepo
	batchSize int
	interval  time.Duration
	log       zerolog.Logger
}

func NewFollowCountReconciler(db *gorm.DB, log zerolog.Logger) *FollowCountReconciler {
	return &FollowCountReconciler{
		repo:      &mysql.FollowCountReconcilerRepo{DB: db},
		batchSize: 500,
		interval:  5 * time.Minute,
		log:       log,
	}
}

// Run 对账定时任务启动器
func (r *FollowCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

// 全表游标扫一轮，逐个修正偏差
func (r *FollowCountReconciler) reconcileOnce(ctx context.Context) {
	var lastID uint64
	for {
		users, next, err := r.repo.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			r.log.Error().Err(err).Msg("reconcile list")
			return
		}
		if len(users) == 0 {
			return
		}
		lastID = next

		for _, u := range users {
			realFollowing, err := r.repo.RealFollowings(ctx, u.ID)
			if err != nil {
				continue
			}
			realFollower, err := r.repo.RealFollowers(ctx, u.ID)
			if err != nil {
				continue
			}
			if realFollowing != u.FollowingCount {
				_ = r.repo.ReconcileFollowings(ctx, u.ID, realFollowing)
			}
			if realFollower != u.FollowerCount {
				_ = r.repo.ReconcileFollowers(ctx, u.ID, realFollower)
			}
		}
	}
}
