// Package mailer 发送确认码邮件，支持控制台、文件和 RabbitMQ 三种后端。
package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
)

// Message 一封邮件
type Message struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New 按配置创建邮件后端
func New(cfg config.MailConfig, log *zap.Logger) (Mailer, error) {
	switch cfg.Backend {
	case "console", "":
		return NewConsole(log), nil
	case "file":
		return NewFile(cfg.FileDir)
	case "amqp":
		return NewPublisher(cfg.AMQPURL, QueueName, log), nil
	default:
		return nil, fmt.Errorf("不支持的邮件后端: %s", cfg.Backend)
	}
}

// Console 将邮件写入日志
type Console struct {
	log *zap.Logger
}

func NewConsole(log *zap.Logger) *Console {
	return &Console{log: log.Named("mail")}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	c.log.Info("邮件",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// ConfirmationMessage 构造确认码邮件
func ConfirmationMessage(from, to, username, code string) Message {
	return Message{
		From:    from,
		To:      to,
		Subject: "YaMDb confirmation code",
		Body: fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n"+
			"Exchange it for an access token at /v1/auth/token/.\n", username, code),
	}
}
