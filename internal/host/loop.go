package host

import (
	"context"
	"runtime/debug"
	"sync"

	"ircnotify/internal/logger"
)

const defaultQueueSize = 256

// Loop 单线程事件分发循环
// 所有事件回调、定时 tick 和配置重新加载都在同一个 goroutine 上依次执行
type Loop struct {
	queue chan func()

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewLoop 创建分发循环
func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), defaultQueueSize),
		done:  make(chan struct{}),
	}
}

// Post 投递一个回调，循环已停止时返回 false
// 队列满时阻塞，直到有空位或循环停止
func (l *Loop) Post(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		return false
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run 执行回调直到 ctx 取消
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.mu.Unlock()
	}()
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			l.invoke(fn)
		}
	}
}

// Done 循环退出后关闭
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// invoke 执行单个回调，panic 不会中断循环
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("事件回调发生 panic: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}
