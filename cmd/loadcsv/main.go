// loadcsv 从 CSV 目录导入初始数据。
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/csvload"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/repository"
)

func main() {
	dir := flag.String("dir", "static/data", "CSV 文件所在目录")
	flag.Parse()

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

	results, err := csvload.New(db, zl).LoadDir(context.Background(), *dir)
	if err != nil {
		zl.Fatal("导入失败", zap.Error(err))
	}
	for _, r := range results {
		zl.Info("已导入", zap.String("file", r.File), zap.String("table", r.Table), zap.Int("rows", r.Rows))
	}
}
