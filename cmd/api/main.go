package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subgreddiit/internal/config"
	"subgreddiit/internal/model"
	"subgreddiit/internal/pkg"
	"subgreddiit/internal/repository/mysql"
	"subgreddiit/internal/repository/redis"
	"subgreddiit/internal/router"
	"subgreddiit/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Logger = logger

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	pkg.SetSecrets(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	db, err := mysql.InitDB(cfg.MySQL.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect mysql")
	}
	if err = db.AutoMigrate(
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
	); err != nil {
		logger.Fatal().Err(err).Msg("auto migrate")
	}

	if err = redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer redis.Close()

	producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init kafka producer")
	}
	defer producer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 后台任务：举报/申请过期清理、outbox 投递、计数对账
	sweeper := service.NewReportSweeper(
		service.NewReportService(db, cfg.ReportTTL()),
		service.NewJoinRequestService(db),
		cfg.SweepInterval(),
		logger.With().Str("job", "report_sweeper").Logger(),
	)
	go sweeper.Run(ctx)

	relayer := service.NewOutboxRelayer(db, service.KafkaSender(producer),
		logger.With().Str("job", "outbox_relayer").Logger())
	go relayer.Run(ctx)

	reconciler := service.NewFollowCountReconciler(db,
		logger.With().Str("job", "follow_reconciler").Logger())
	go reconciler.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router.InitRouter(db, cfg),
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
}
