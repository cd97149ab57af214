package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ircnotify/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config.json"
	EnvPrefix      = "IRCNOTIFY"
)

// File 基于 viper 的设置注册表：默认值 < 配置文件 < 环境变量 < 命令行参数
type File struct {
	v    *viper.Viper
	path string
}

// SetDefaults 写入全部默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServer, DefaultServer)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyAuthToken, "")
	v.SetDefault(KeyAwayOnly, DefaultAwayOnly)
	v.SetDefault(KeyClearOnReturn, DefaultClearOnReturn)
	v.SetDefault(KeyDebug, DefaultDebug)
	v.SetDefault(KeyBridgeListen, DefaultBridgeListen)
	v.SetDefault(KeyBridgeToken, "")
}

// Open 打开配置文件，不存在时创建默认配置
// path 为空时使用 DefaultPath
func Open(path string) (*File, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigFile(path)
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefaults(path); err != nil {
			return nil, fmt.Errorf("创建默认配置文件失败: %w", err)
		}
		logger.Infof("已创建默认配置文件: %s", path)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	return &File{v: v, path: path}, nil
}

// Path 配置文件路径
func (f *File) Path() string {
	return f.path
}

func (f *File) GetString(key string) string { return f.v.GetString(key) }

func (f *File) GetInt(key string) int { return f.v.GetInt(key) }

func (f *File) GetBool(key string) bool { return f.v.GetBool(key) }

// Refresh 重新读取配置文件
func (f *File) Refresh() error {
	return f.v.ReadInConfig()
}

// Set 修改一个设置（调用 Save 后持久化）
// value 按设置的类型解析，未知键或无法解析时返回错误
func (f *File) Set(key, value string) error {
	var parsed interface{}
	switch key {
	case KeyServer, KeyAuthToken, KeyBridgeListen, KeyBridgeToken:
		parsed = value
	case KeyPort:
		port, err := strconv.Atoi(value)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("无效的端口: %q", value)
		}
		parsed = port
	case KeyAwayOnly, KeyClearOnReturn, KeyDebug:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值 %s=%q: %w", key, value, err)
		}
		parsed = b
	default:
		return fmt.Errorf("未知的设置: %s", key)
	}
	f.v.Set(key, parsed)
	return nil
}

// Save 保存配置文件
func (f *File) Save() error {
	if err := f.v.WriteConfigAs(f.path); err != nil {
		return fmt.Errorf("保存配置文件失败: %w", err)
	}
	return nil
}

// BindFlags 把命令行参数绑定到同名设置
func (f *File) BindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for flagName, key := range keys {
		flag := fs.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := f.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("绑定参数 %s 失败: %w", flagName, err)
		}
	}
	return nil
}

// Watch 监听配置文件所在目录，配置文件变化时调用 onChange，ctx 取消后停止
// 这里只发信号不读文件，重新读取由 Refresh 完成，viper 只在调用方的线程上被访问
func (f *File) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("监听目录 %s 失败: %w", dir, err)
	}

	name := filepath.Clean(f.path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				// 编辑器常用改名替换的方式保存
				if filepath.Clean(e.Name) != name || e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debugf("检测到配置文件变化: %s (%s)", e.Name, e.Op)
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("配置文件监听出错: %v", err)
			}
		}
	}()
	return nil
}

// DefaultPath 获取配置文件路径
// 优先使用当前目录，否则使用 ~/.ircnotify
func DefaultPath() string {
	local := filepath.Join(".", ConfigFileName)
	if _, err := os.Stat(local); err == nil {
		return local
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".ircnotify", ConfigFileName)
	}
	return local
}

// writeDefaults 创建默认配置文件
func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set(KeyServer, DefaultServer)
	v.Set(KeyPort, DefaultPort)
	v.Set(KeyAuthToken, "")
	v.Set(KeyAwayOnly, DefaultAwayOnly)
	v.Set(KeyClearOnReturn, DefaultClearOnReturn)
	v.Set(KeyDebug, DefaultDebug)
	v.Set(KeyBridgeListen, DefaultBridgeListen)
	v.Set(KeyBridgeToken, "")
	return v.WriteConfigAs(path)
}
