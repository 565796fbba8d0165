package router

import (
	"subgreddiit/internal/config"
	"subgreddiit/internal/handler"
	"subgreddiit/internal/middleware"
	"subgreddiit/internal/pkg"
	"subgreddiit/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InitRouter 组装服务与路由
func InitRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	emailSvc := service.NewEmailService(pkg.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	userSvc := service.NewUserService(db, emailSvc)
	communitySvc := service.NewCommunityService(db)
	statsSvc := service.NewStatsService(db)
	jrSvc := service.NewJoinRequestService(db)
	reportSvc := service.NewReportService(db, cfg.ReportTTL())
	postSvc := service.NewPostService(db)
	followSvc := service.NewFollowService(db)

	emailHandler := handler.NewEmailHandler(emailSvc)
	userHandler := handler.NewUserHandler(userSvc)
	communityHandler := handler.NewCommunityHandler(communitySvc, statsSvc)
	jrHandler := handler.NewJoinRequestHandler(jrSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	postHandler := handler.NewPostHandler(postSvc)
	followHandler := handler.NewFollowHandler(followSvc)

	api := r.Group("/api")

	email := api.Group("/email")
	{
		email.POST("/code/:scope", emailHandler.SendCode)
	}

	user := api.Group("/user")
	{
		user.POST("/register", userHandler.Register)
		user.POST("/login", userHandler.Login)
		user.POST("/reset-password", userHandler.ResetPassword)
	}

	token := api.Group("/token")
	{
		token.POST("/refresh", userHandler.TokenRefresh)
	}

	auth := api.Group("/auth", middleware.Auth())
	{
		auth.POST("/logout", userHandler.Logout)
		auth.POST("/change-password", userHandler.ChangePassword)
	}

	community := api.Group("/community", middleware.Auth())
	{
		community.POST("", communityHandler.Create)
		community.GET("", communityHandler.List)
		community.GET("/mine", communityHandler.ListMine)
		community.GET("/:id", communityHandler.Get)
		community.POST("/:id/leave", communityHandler.Leave)
		community.GET("/:id/users", communityHandler.Users)
		community.GET("/:id/stats", communityHandler.Stats)

		community.GET("/:id/posts", postHandler.ListByCommunity)

		community.POST("/:id/join-requests", jrHandler.Submit)
		community.GET("/:id/join-requests", jrHandler.ListPending)
		community.POST("/:id/join-requests/:reqID/accept", jrHandler.Accept)
		community.POST("/:id/join-requests/:reqID/reject", jrHandler.Reject)

		community.POST("/:id/reports", reportHandler.Create)
		community.GET("/:id/reports", reportHandler.List)
		community.POST("/:id/reports/:reportID/ignore", reportHandler.Ignore)
		community.POST("/:id/reports/:reportID/block-user", reportHandler.BlockUser)
		community.POST("/:id/reports/:reportID/delete-post", reportHandler.DeletePost)
	}

	post := api.Group("/post", middleware.Auth())
	{
		post.POST("", postHandler.Create)
		post.DELETE("/:id", postHandler.Delete)
	}

	follow := api.Group("/follow", middleware.Auth())
	{
		follow.POST("", followHandler.Follow)
		follow.GET("/followings", followHandler.ListFollowings)
		follow.GET("/followers", followHandler.ListFollowers)
		follow.GET("/relation", followHandler.Relation)
	}

	return r
}
