package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

var (
	logger *logrus.Logger
	mu     sync.RWMutex
)

// plainFileWriter 写入日志文件前去掉 ANSI 颜色码
type plainFileWriter struct {
	file *os.File
}

func (w *plainFileWriter) Write(p []byte) (int, error) {
	if _, err := w.file.Write(stripANSI(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// teeWriter 依次写入所有 writer，单个 writer 失败不影响其余
type teeWriter struct {
	writers []io.Writer
}

func (w *teeWriter) Write(p []byte) (int, error) {
	for _, writer := range w.writers {
		if writer != nil {
			_, _ = writer.Write(p)
		}
	}
	return len(p), nil
}

// stripANSI 移除形如 \x1b[...m 的颜色序列
func stripANSI(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == 0x1b && i+1 < len(data) && data[i+1] == '[' {
			i += 2
			for i < len(data) && data[i] != 'm' {
				i++
			}
			continue
		}
		out = append(out, data[i])
	}
	return out
}

// Init 初始化日志系统
// logDir 为空时只输出到控制台
func Init(level string, logDir string) error {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		ForceColors:     true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if logDir == "" {
		l.SetOutput(os.Stdout)
	} else {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}
		// 按日期命名：ircnotify-2026-01-15.log
		name := filepath.Join(logDir, "ircnotify-"+time.Now().Format("2006-01-02")+".log")
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		l.SetOutput(&teeWriter{writers: []io.Writer{os.Stdout, &plainFileWriter{file: file}}})
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// SetOutput 替换输出目标（测试用）
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

// SetDebug 根据 debug 开关切换 debug/info 级别
func SetDebug(debug bool) {
	if debug {
		GetLogger().SetLevel(logrus.DebugLevel)
		return
	}
	GetLogger().SetLevel(logrus.InfoLevel)
}

// DebugEnabled 当前是否输出 debug 日志
func DebugEnabled() bool {
	return GetLogger().IsLevelEnabled(logrus.DebugLevel)
}

// GetLogger 获取日志实例，未初始化时只输出到控制台
func GetLogger() *logrus.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	_ = Init("info", "")
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugf 记录格式化 debug 级别日志
func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

// Info 记录 info 级别日志
func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

// Infof 记录格式化 info 级别日志
func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

// Warn 记录 warn 级别日志
func Warn(args ...interface{}) {
	GetLogger().Warn(args...)
}

// Warnf 记录格式化 warn 级别日志
func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

// Errorf 记录格式化 error 级别日志
func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

// DefaultLogDir 默认日志目录
func DefaultLogDir() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".ircnotify", "logs")
	}
	return filepath.Join(".", "logs")
}
