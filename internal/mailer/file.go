package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// File 每封邮件写成目录下的一个文件
type File struct {
	dir string
	seq atomic.Uint64
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建邮件目录失败: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Send(_ context.Context, msg Message) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	name := fmt.Sprintf("%s-%06d.log", msg.SentAt.Format("20060102-150405"), f.seq.Add(1))
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\n\n", msg.SentAt.Format(time.RFC1123Z))
	b.WriteString(msg.Body)

	if err := os.WriteFile(filepath.Join(f.dir, name), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("写入邮件文件失败: %w", err)
	}
	return nil
}
