// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meditalk-go/internal/config"
	"meditalk-go/internal/handler"
	"meditalk-go/internal/middleware"
	"meditalk-go/internal/model"
	"meditalk-go/internal/repository"
	"meditalk-go/internal/service"
	"meditalk-go/internal/summarizer"
	"meditalk-go/pkg/database"
	"meditalk-go/pkg/hash"
	"meditalk-go/pkg/kafka"
	"meditalk-go/pkg/log"
	"meditalk-go/pkg/storage"
	"meditalk-go/pkg/token"
	"meditalk-go/pkg/translator"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与可选的外围设施
	database.InitMySQL(cfg.Database.MySQL.DSN())
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	// 4. 迁移数据表并写入演示账号
	if err := database.DB.AutoMigrate(&model.User{}, &model.Conversation{}, &model.Message{}, &model.Summary{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	seedDemoUsers()

	// 5. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	summaryRepo := repository.NewSummaryRepository(database.DB)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	translationGateway := translator.NewClient(cfg.Translation)
	userService := service.NewUserService(userRepository, jwtManager)
	conversationService := service.NewConversationService(conversationRepo, userRepository)
	messageService := service.NewMessageService(conversationRepo, messageRepo, translationGateway)
	summaryService := service.NewSummaryService(conversationRepo, messageRepo, summaryRepo, summarizer.NewKeywordExtractor())

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
				// 患者清单仅医生可见，医生发起会诊时使用
				authed.GET("/patients", middleware.DoctorAuthMiddleware(),
					handler.NewUserHandler(userService).ListPatients)
			}
		}

		// Conversation 路由组，需要认证
		conversations := apiV1.Group("/conversations")
		conversations.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			conversationHandler := handler.NewConversationHandler(conversationService)
			messageHandler := handler.NewMessageHandler(messageService)
			summaryHandler := handler.NewSummaryHandler(summaryService)

			conversations.GET("", conversationHandler.List)
			conversations.GET("/:id", conversationHandler.GetByID)
			conversations.POST("/:id/end", conversationHandler.End)
			conversations.GET("/:id/messages", messageHandler.List)
			conversations.POST("/:id/messages", messageHandler.Send)
			conversations.GET("/:id/summary", summaryHandler.Get)

			// 发起会诊与生成小结仅限医生
			doctorOnly := conversations.Group("")
			doctorOnly.Use(middleware.DoctorAuthMiddleware())
			{
				doctorOnly.POST("", conversationHandler.Start)
				doctorOnly.POST("/:id/summary", summaryHandler.Generate)
			}
		}

		// Translation 路由组，需要认证
		translations := apiV1.Group("/translations")
		translations.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			translations.POST("/preview", handler.NewTranslationHandler(messageService).Preview)
		}
		apiV1.GET("/languages", handler.NewTranslationHandler(messageService).Languages)
	}

	// 实时消息通道 (WebSocket)，token 在路径中校验
	chatHandler := handler.NewChatHandler(messageService, conversationService, userService, jwtManager)
	r.GET("/ws/conversations/:id/:token", chatHandler.Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}

// seedDemoUsers 写入一对演示医患账号（幂等，已存在则跳过）。
// 演示账号走和普通账号完全一样的登录与密码校验流程。
func seedDemoUsers() {
	demoUsers := []struct {
		email     string
		role      string
		firstName string
		lastName  string
	}{
		{"doctor@demo.com", model.RoleDoctor, "Dr. Sarah", "Johnson"},
		{"patient@demo.com", model.RolePatient, "Maria", "Garcia"},
	}

	userRepo := repository.NewUserRepository(database.DB)
	for _, d := range demoUsers {
		if _, err := userRepo.FindByEmail(d.email); err == nil {
			continue
		}
		hashed, err := hash.HashPassword("password")
		if err != nil {
			log.Warnf("seedDemoUsers: 密码哈希失败: %v", err)
			return
		}
		user := &model.User{
			Email:     d.email,
			Password:  hashed,
			Role:      d.role,
			FirstName: d.firstName,
			LastName:  d.lastName,
		}
		if err := userRepo.Create(user); err != nil {
			log.Warnf("seedDemoUsers: 创建演示账号失败: %s, err=%v", d.email, err)
			continue
		}
		log.Infof("seedDemoUsers: 演示账号已创建: %s (%s)", d.email, d.role)
	}
}
