//go:build !(linux || darwin || freebsd || openbsd || netbsd || dragonfly)

package singleinstance

import "ircnotify/internal/logger"

// Lock 非 Unix 平台不做单实例检查
type Lock struct{}

// Acquire 非 Unix 平台总是成功
func Acquire(path string) (*Lock, error) {
	logger.Debugf("当前平台不支持文件锁，跳过单实例检查: %s", path)
	return &Lock{}, nil
}

// Release 释放单实例锁
func (l *Lock) Release() {}
