// mailer 消费 RabbitMQ 邮件队列，通过文件或控制台后端投递。
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/mailer"
)

func main() {
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

	if cfg.Mail.AMQPURL == "" {
		zl.Fatal("未配置 AMQP_URL")
	}

	// 队列只负责转发，最终投递用文件后端，未配置目录时写日志
	var delivery mailer.Mailer = mailer.NewConsole(zl)
	if cfg.Mail.FileDir != "" {
		f, err := mailer.NewFile(cfg.Mail.FileDir)
		if err != nil {
			zl.Fatal("初始化文件后端失败", zap.Error(err))
		}
		delivery = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl.Info("邮件消费者启动", zap.String("queue", mailer.QueueName))
	consumer := mailer.NewConsumer(cfg.Mail.AMQPURL, mailer.QueueName, delivery, zl)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("邮件消费者退出", zap.Error(err))
	}
	zl.Info("邮件消费者已退出")
}
