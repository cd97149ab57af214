//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ircnotify/internal/logger"

	"golang.org/x/sys/unix"
)

// Lock 单实例锁，持有期间同一锁文件的其它进程无法获取
type Lock struct {
	file *os.File
	path string
}

// Acquire 尝试获取单实例锁
// 如果已经有实例在运行，返回 ErrAlreadyRunning
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("创建锁文件目录失败: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开锁文件失败: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("获取文件锁失败: %w", err)
	}

	_ = file.Truncate(0)
	_, _ = file.WriteString(strconv.Itoa(os.Getpid()) + "\n")

	logger.Debugf("单实例锁已获取: %s", path)
	return &Lock{file: file, path: path}, nil
}

// Release 释放单实例锁
// 锁文件保留在磁盘上，删除会让另一个进程锁住已经解除链接的旧文件
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
	logger.Debugf("单实例锁已释放: %s", l.path)
}
