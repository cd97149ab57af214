package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"ircnotify/internal/logger"
	"ircnotify/pkg/types"
)

// PollInterval 离开状态轮询间隔
const PollInterval = 5 * time.Second

// Clock 周期任务调度
type Clock interface {
	Every(interval time.Duration, fn func()) int
	Cancel(id int)
}

// NetworkLister 枚举当前已连接的聊天网络
type NetworkLister interface {
	Networks() []types.ServerState
}

// Clearer 发送清除通知
type Clearer interface {
	Clear(ctx context.Context)
}

// Tracker 轮询各网络的离开状态，检测到从离开返回时发送一次清除通知
type Tracker struct {
	ctx      context.Context
	clock    Clock
	networks NetworkLister
	clearer  Clearer
	interval time.Duration

	mu         sync.Mutex
	// 网络 -> 上次观察到的离开状态
	memory     map[string]bool
	active     bool
	scheduleID int
	// 每次 SetEnabled 递增，旧调度的 tick 被丢弃
	generation uint64
}

// New 创建离开状态追踪器，初始不调度
func New(ctx context.Context, clock Clock, networks NetworkLister, clearer Clearer) *Tracker {
	return &Tracker{
		ctx:      ctx,
		clock:    clock,
		networks: networks,
		clearer:  clearer,
		interval: PollInterval,
		memory:   make(map[string]bool),
	}
}

// SetEnabled 先取消已有调度，enabled 为 true 时重新注册
// 任意时刻最多只有一个调度
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		t.clock.Cancel(t.scheduleID)
		t.active = false
		logger.Debugf("已取消离开状态轮询 (schedule=%d)", t.scheduleID)
	}
	t.generation++

	if !enabled {
		return
	}

	gen := t.generation
	t.scheduleID = t.clock.Every(t.interval, func() {
		t.scheduledTick(gen)
	})
	t.active = true
	logger.Debugf("已启动离开状态轮询，间隔 %s (schedule=%d)", t.interval, t.scheduleID)
}

// Active 是否存在生效的调度
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Memory 返回离开状态记录的副本
func (t *Tracker) Memory() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.memory))
	for k, v := range t.memory {
		out[k] = v
	}
	return out
}

func (t *Tracker) scheduledTick(gen uint64) {
	t.mu.Lock()
	current := t.active && gen == t.generation
	t.mu.Unlock()
	if !current {
		return
	}
	t.Tick(t.ctx)
}

// Tick 执行一次轮询，返回本次是否发送了清除通知
func (t *Tracker) Tick(ctx context.Context) bool {
	var returned []string

	live := awayByNetwork(t.networks.Networks())

	t.mu.Lock()
	for network, away := range live {
		prev, seen := t.memory[network]
		if seen && prev && !away {
			returned = append(returned, network)
		}
		t.memory[network] = away
	}
	t.mu.Unlock()

	if len(returned) == 0 {
		return false
	}

	sort.Strings(returned)
	logger.Debugf("检测到从离开状态返回: %v，发送清除通知", returned)
	// 清除通知不区分网络，一次 tick 只发一次
	t.clearer.Clear(ctx)
	return true
}

// awayByNetwork 按网络标识合并会话，同名的所有会话都离开才算离开
func awayByNetwork(states []types.ServerState) map[string]bool {
	out := make(map[string]bool, len(states))
	for _, srv := range states {
		away, seen := out[srv.Network]
		out[srv.Network] = srv.Away && (away || !seen)
	}
	return out
}
