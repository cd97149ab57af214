package main

import (
	"context"
	"fmt"
	"time"

	"ircnotify/internal/config"
	"ircnotify/internal/filter"
	"ircnotify/internal/host"
	"ircnotify/internal/logger"
	"ircnotify/internal/notifier"
	"ircnotify/internal/tracker"
	"ircnotify/pkg/types"
)

// ClearCommand 宿主中触发清除通知的命令名
const ClearCommand = "clear"

// watcher 可以监听变化的设置注册表
type watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// App 组合根，持有所有组件
type App struct {
	ctx      context.Context
	cancel   context.CancelFunc
	settings config.Settings
	store    *config.Store
	notifier *notifier.Notifier
	filter   *filter.Filter
	tracker  *tracker.Tracker
	loop     *host.Loop
	clock    *host.CronClock
	bridge   *host.Bridge
}

// NewApp 创建应用并连接各组件
func NewApp(parent context.Context, settings config.Settings, opts ...notifier.Option) *App {
	ctx, cancel := context.WithCancel(parent)
	store := config.NewStore(settings)
	loop := host.NewLoop()
	clock := host.NewCronClock(loop)
	n := notifier.New(store, opts...)
	bridge := host.NewBridge(loop, func() string {
		return store.Current().Bridge.Token
	})
	flt := filter.New(store, n)
	trk := tracker.New(ctx, clock, bridge, n)

	// 先切换日志级别，再调整轮询
	store.OnReload(func(cfg *types.Config) {
		logger.SetDebug(cfg.Debug)
	})
	store.OnReload(func(cfg *types.Config) {
		trk.SetEnabled(cfg.ClearOnReturn)
	})

	bridge.OnPublicMessage(flt.PublicMessage)
	bridge.OnPrivateMessage(flt.PrivateMessage)
	bridge.OnCommand(ClearCommand, n.Clear)
	bridge.OnConfigChanged(store.Reload)

	return &App{
		ctx:      ctx,
		cancel:   cancel,
		settings: settings,
		store:    store,
		notifier: n,
		filter:   flt,
		tracker:  trk,
		loop:     loop,
		clock:    clock,
		bridge:   bridge,
	}
}

// Run 加载配置、启动分发循环和宿主桥接，阻塞直到 ctx 取消
func (a *App) Run() error {
	// 分发循环启动前没有其它回调，这里直接加载
	a.store.Reload()

	go a.loop.Run(a.ctx)

	if w, ok := a.settings.(watcher); ok {
		err := w.Watch(a.ctx, func() {
			a.loop.Post(a.store.Reload)
		})
		if err != nil {
			logger.Warnf("无法监听配置文件，修改后需重启生效: %v", err)
		}
	}

	cfg := a.store.Current()
	logger.Infof("中继 %s:%d，away_only=%v，clear_on_return=%v", cfg.Server, cfg.Port, cfg.AwayOnly, cfg.ClearOnReturn)
	if cfg.AuthToken == "" {
		logger.Warn("未设置 auth_token，通知不会被发送")
	}

	err := a.bridge.Start(a.ctx, cfg.Bridge.Listen)
	a.shutdown()
	if err != nil {
		return fmt.Errorf("宿主桥接退出: %w", err)
	}
	return nil
}

// shutdown 停止调度器并等待分发循环退出
func (a *App) shutdown() {
	logger.Info("开始退出程序")
	a.cancel()

	stopDone := make(chan struct{})
	go func() {
		defer close(stopDone)
		a.clock.Stop()
	}()

	select {
	case <-stopDone:
	case <-time.After(3 * time.Second):
		logger.Warn("等待调度器停止超时，继续退出流程")
	}

	select {
	case <-a.loop.Done():
		logger.Info("分发循环已停止")
	case <-time.After(5 * time.Second):
		logger.Warn("等待分发循环停止超时，强制退出")
	}
}
