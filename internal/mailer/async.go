package mailer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Async 在后台 goroutine 中发送，失败只记录日志
type Async struct {
	next    Mailer
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewAsync(next Mailer, timeout time.Duration, log *zap.Logger) *Async {
	return &Async{next: next, timeout: timeout, log: log.Named("mail")}
}

// Send 立即返回，不继承请求的取消
func (a *Async) Send(ctx context.Context, msg Message) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.next.Send(sendCtx, msg); err != nil {
			a.log.Error("发送邮件失败", zap.String("to", msg.To), zap.Error(err))
		}
	}()
	return nil
}

// Wait 等待所有在途邮件发送完成，用于优雅退出
func (a *Async) Wait() {
	a.wg.Wait()
}
