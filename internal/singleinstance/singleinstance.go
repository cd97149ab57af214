package singleinstance

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrAlreadyRunning 已有实例在运行
var ErrAlreadyRunning = errors.New("已有实例在运行")

// DefaultPath 默认锁文件路径
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".ircnotify", "ircnotify.lock")
	}
	return filepath.Join(os.TempDir(), "ircnotify.lock")
}
