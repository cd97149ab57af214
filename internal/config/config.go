package config

import (
	"strings"
	"sync"
	"sync/atomic"

	"ircnotify/internal/logger"
	"ircnotify/pkg/types"
)

const (
	DefaultServer        = "localhost"
	DefaultPort          = 26144
	DefaultAwayOnly      = true
	DefaultClearOnReturn = false
	DefaultDebug         = false
	DefaultBridgeListen  = "127.0.0.1:26145"
)

// 设置键名
const (
	KeyServer        = "server"
	KeyPort          = "port"
	KeyAuthToken     = "auth_token"
	KeyAwayOnly      = "away_only"
	KeyClearOnReturn = "clear_on_return"
	KeyDebug         = "debug"
	KeyBridgeListen  = "bridge.listen"
	KeyBridgeToken   = "bridge.token"
)

// Settings 宿主设置注册表，缺失的值由实现方回退到默认值
type Settings interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
}

// refresher 可以从底层存储重新读取的设置
type refresher interface {
	Refresh() error
}

// Store 保存当前生效的配置
// Reload 整体替换配置，读者总是看到完整的一份
type Store struct {
	settings Settings
	current  atomic.Pointer[types.Config]

	hooksMu sync.Mutex
	hooks   []func(*types.Config)
}

// NewStore 创建配置存储，初始值为默认配置
func NewStore(settings Settings) *Store {
	s := &Store{settings: settings}
	s.current.Store(Defaults())
	return s
}

// Defaults 返回默认配置
func Defaults() *types.Config {
	return &types.Config{
		Server:        DefaultServer,
		Port:          DefaultPort,
		AwayOnly:      DefaultAwayOnly,
		ClearOnReturn: DefaultClearOnReturn,
		Debug:         DefaultDebug,
		Bridge:        types.BridgeConfig{Listen: DefaultBridgeListen},
	}
}

// OnReload 注册重新加载后的回调，按注册顺序执行
func (s *Store) OnReload(fn func(*types.Config)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Current 获取当前配置
func (s *Store) Current() *types.Config {
	return s.current.Load()
}

// Reload 从设置注册表重新读取全部配置并执行回调
func (s *Store) Reload() {
	if r, ok := s.settings.(refresher); ok {
		if err := r.Refresh(); err != nil {
			logger.Warnf("重新读取配置文件失败，沿用已加载的值: %v", err)
		}
	}

	cfg := &types.Config{
		Server:        strings.TrimSpace(s.settings.GetString(KeyServer)),
		Port:          s.settings.GetInt(KeyPort),
		AuthToken:     s.settings.GetString(KeyAuthToken),
		AwayOnly:      s.settings.GetBool(KeyAwayOnly),
		ClearOnReturn: s.settings.GetBool(KeyClearOnReturn),
		Debug:         s.settings.GetBool(KeyDebug),
		Bridge: types.BridgeConfig{
			Listen: s.settings.GetString(KeyBridgeListen),
			Token:  s.settings.GetString(KeyBridgeToken),
		},
	}
	normalize(cfg)
	s.current.Store(cfg)

	logger.Debugf("配置已重新加载: server=%s port=%d away_only=%v clear_on_return=%v",
		cfg.Server, cfg.Port, cfg.AwayOnly, cfg.ClearOnReturn)

	s.hooksMu.Lock()
	hooks := make([]func(*types.Config), len(s.hooks))
	copy(hooks, s.hooks)
	s.hooksMu.Unlock()

	for _, fn := range hooks {
		fn(cfg)
	}
}

// normalize 把非法值替换为默认值，Reload 不会失败
func normalize(cfg *types.Config) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		logger.Warnf("端口 %d 超出范围 1-65535，使用默认端口 %d", cfg.Port, DefaultPort)
		cfg.Port = DefaultPort
	}
	if cfg.Bridge.Listen == "" {
		cfg.Bridge.Listen = DefaultBridgeListen
	}
}
