// seed 为开发数据库生成演示数据。
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "用户数")
	titles := flag.Int("titles", defaults.Titles, "作品数")
	reviews := flag.Int("reviews", defaults.ReviewsPerTitle, "每个作品的评价数")
	comments := flag.Int("comments", defaults.CommentsPerReview, "每条评价的评论数")
	seedValue := flag.Int64("seed", 0, "随机种子，0 表示使用当前时间")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("生产环境禁止生成演示数据")
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := repository.Open(cfg, zl)
	if err != nil {
		zl.Fatal("数据库初始化失败", zap.Error(err))
	}

	opts := seed.Options{
		Users:             *users,
		Titles:            *titles,
		ReviewsPerTitle:   *reviews,
		CommentsPerReview: *comments,
		Seed:              *seedValue,
	}
	if _, err := seed.Run(context.Background(), repository.NewRepositories(db), opts, zl); err != nil {
		zl.Fatal("生成演示数据失败", zap.Error(err))
	}
}
