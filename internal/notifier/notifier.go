package notifier

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"time"

	"ircnotify/internal/logger"
	"ircnotify/pkg/types"
)

const (
	DefaultDialTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// DialFunc 建立到中继的连接
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ConfigSource 提供当前配置
type ConfigSource interface {
	Current() *types.Config
}

// Option 通知器选项
type Option func(*Notifier)

// WithDialer 替换拨号函数
func WithDialer(dial DialFunc) Option {
	return func(n *Notifier) {
		n.dial = dial
	}
}

// WithWriteTimeout 设置写超时，0 表示不设置
func WithWriteTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		n.writeTimeout = d
	}
}

// Notifier 中继通知器
// 每次发送建立一个新的 TLS 连接，写入一条 JSON 后关闭。
// 发送是尽力而为的：不重试、不排队，调用方拿不到结果。
type Notifier struct {
	cfg          ConfigSource
	dial         DialFunc
	writeTimeout time.Duration
}

// New 创建通知器
func New(cfg ConfigSource, opts ...Option) *Notifier {
	n := &Notifier{
		cfg:          cfg,
		dial:         TLSDialer(DefaultDialTimeout),
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// TLSDialer 默认拨号函数
// 不校验服务器证书，通道可被中间人截获，唯一的凭据是载荷里的 auth-token
func TLSDialer(timeout time.Duration) DialFunc {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // 中继使用自签名证书
		},
	}
	return d.DialContext
}

// Send 发送一条通知；room、sender、message 全为空时发送清除通知
func (n *Notifier) Send(ctx context.Context, room, sender, message string) {
	n.deliver(ctx, types.NewNotification(room, sender, message))
}

// Clear 发送清除通知
func (n *Notifier) Clear(ctx context.Context) {
	n.Send(ctx, "", "", "")
}

func (n *Notifier) deliver(ctx context.Context, notification types.Notification) {
	cfg := n.cfg.Current()

	if cfg.AuthToken == "" {
		logger.Debugf("未设置 auth_token，跳过通知")
		return
	}
	if cfg.Server == "" {
		logger.Debugf("未设置中继服务器，跳过通知")
		return
	}

	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
	conn, err := n.dial(ctx, "tcp", addr)
	if err != nil {
		logger.Debugf("连接中继 %s 失败: %v", addr, err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("关闭中继连接失败: %v", err)
		}
	}()

	if n.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(n.writeTimeout))
	}

	payload := FormatPayload(cfg.AuthToken, notification)
	if _, err := io.WriteString(conn, payload); err != nil {
		logger.Debugf("写入中继 %s 失败: %v", addr, err)
		return
	}

	if notification.IsClear() {
		logger.Debugf("已发送清除通知到 %s", addr)
	} else {
		logger.Debugf("已发送通知到 %s: room=%q sender=%q", addr, notification.Room, notification.Sender)
	}
}
