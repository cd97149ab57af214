package host

import (
	"time"

	"ircnotify/internal/logger"

	"github.com/robfig/cron/v3"
)

// CronClock 基于 cron 的周期调度，回调投递到分发循环中执行
type CronClock struct {
	loop *Loop
	c    *cron.Cron
}

// NewCronClock 创建并启动调度器
func NewCronClock(loop *Loop) *CronClock {
	c := cron.New()
	c.Start()
	return &CronClock{loop: loop, c: c}
}

// Every 注册周期回调，返回调度 ID（cron 按秒取整，最小 1 秒）
func (k *CronClock) Every(interval time.Duration, fn func()) int {
	job := cron.FuncJob(func() {
		if !k.loop.Post(fn) {
			logger.Debugf("分发循环已停止，丢弃定时回调")
		}
	})
	return int(k.c.Schedule(cron.Every(interval), job))
}

// Cancel 取消调度
func (k *CronClock) Cancel(id int) {
	k.c.Remove(cron.EntryID(id))
}

// Count 当前生效的调度数
func (k *CronClock) Count() int {
	return len(k.c.Entries())
}

// Stop 停止调度器并等待正在执行的任务结束
func (k *CronClock) Stop() {
	<-k.c.Stop().Done()
}
