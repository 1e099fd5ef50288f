package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/handler"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/router"
	"github.com/user/yamdb/internal/service"
)

const mailTimeout = 10 * time.Second

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置无效: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// 初始化数据库
	db, err := repository.Open(cfg, zl)
	if err != nil {
		zl.Fatal("数据库初始化失败", zap.Error(err))
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 邮件异步发送，不阻塞响应
	backend, err := mailer.New(cfg.Mail, zl)
	if err != nil {
		zl.Fatal("初始化邮件失败", zap.Error(err))
	}
	mail := mailer.NewAsync(backend, mailTimeout, zl)

	rdb := connectRedis(cfg.Redis.URL, zl)
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化 Handler
	h := handler.NewHandler(repos, cfg, mail, zl)

	// 启动定时清理任务
	cleanupSvc := service.NewCleanupService(repos, cfg.ConfirmationCodeTTL, zl)
	cleanupSvc.Start(ctx)

	// 注册路由
	r := router.NewEngine(cfg.IsProduction(), zl)
	router.RegisterRoutes(r, h, rdb)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		zl.Info("服务器启动", zap.String("addr", "http://localhost:"+cfg.Port), zap.String("db", cfg.DB.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	<-ctx.Done()
	zl.Info("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("服务器强制关闭", zap.Error(err))
	}

	// 等待尚未发出的确认码邮件
	mail.Wait()
	zl.Info("服务器已退出")
}

// connectRedis 连接限流使用的 Redis，未配置或不可用时返回 nil
func connectRedis(url string, log *zap.Logger) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("REDIS_URL 无效，限流已关闭", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis 不可用，限流已关闭", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
