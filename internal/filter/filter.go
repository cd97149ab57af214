package filter

import (
	"context"
	"strings"

	"ircnotify/internal/logger"
	"ircnotify/pkg/types"
)

// Sender 发送通知
type Sender interface {
	Send(ctx context.Context, room, sender, message string)
}

// ConfigSource 提供当前配置
type ConfigSource interface {
	Current() *types.Config
}

// Filter 决定一条聊天事件是否需要转发
type Filter struct {
	cfg    ConfigSource
	sender Sender
}

// New 创建事件过滤器
func New(cfg ConfigSource, sender Sender) *Filter {
	return &Filter{cfg: cfg, sender: sender}
}

// eligible 离开状态或未开启 away_only 时才转发
func (f *Filter) eligible(srv types.ServerState) bool {
	return srv.Away || !f.cfg.Current().AwayOnly
}

// PublicMessage 处理频道消息：消息中包含当前昵称时转发
// 昵称按不区分大小写的子串匹配，不检查单词边界
func (f *Filter) PublicMessage(ctx context.Context, srv types.ServerState, text, nick, mask, channel string) {
	if !f.eligible(srv) {
		return
	}
	if !containsFold(text, srv.Nick) {
		return
	}
	logger.Debugf("[%s] %s 在 %s 提到了 %s", srv.Network, nick, channel, srv.Nick)
	f.sender.Send(ctx, channel, nick, text)
}

// PrivateMessage 处理私聊消息：满足离开条件时全部转发
func (f *Filter) PrivateMessage(ctx context.Context, srv types.ServerState, text, nick, address string) {
	if !f.eligible(srv) {
		return
	}
	logger.Debugf("[%s] 收到 %s (%s) 的私聊", srv.Network, nick, address)
	f.sender.Send(ctx, "", nick, text)
}

// containsFold 昵称为空时不匹配
func containsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
