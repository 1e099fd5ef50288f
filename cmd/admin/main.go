// admin 管理命令，目前支持 createsuperuser。
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
)

const usage = "用法: admin createsuperuser <username> <email>"

func main() {
	if len(os.Args) != 4 || os.Args[1] != "createsuperuser" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	username, email := os.Args[2], os.Args[3]

	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
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

	users := service.NewUserService(repository.NewRepositories(db), cfg.UserCacheTTL)
	user, created, err := users.EnsureSuperuser(context.Background(), username, email)
	if err != nil {
		zl.Fatal("创建超级管理员失败", zap.Error(err))
	}
	if created {
		fmt.Printf("已创建超级管理员 %s，请通过 /v1/auth/signup/ 获取确认码\n", user.Username)
	} else {
		fmt.Printf("已将 %s 提升为超级管理员\n", user.Username)
	}
}
