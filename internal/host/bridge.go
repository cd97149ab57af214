package host

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"ircnotify/internal/logger"
	"ircnotify/pkg/types"

	"github.com/gorilla/websocket"
)

const (
	BridgePath        = "/bridge"
	BridgeTokenHeader = "X-Bridge-Token"
	maxFrameSize      = 64 << 10
)

// PublicHandler 频道消息回调
type PublicHandler func(ctx context.Context, srv types.ServerState, text, nick, mask, channel string)

// PrivateHandler 私聊消息回调
type PrivateHandler func(ctx context.Context, srv types.ServerState, text, nick, address string)

// CommandHandler 用户命令回调
type CommandHandler func(ctx context.Context)

// Bridge 宿主聊天客户端的 WebSocket 桥接
// 宿主脚本把聊天事件、网络状态快照和命令以 JSON 帧推送过来，
// 所有回调都投递到 Loop 上执行。
type Bridge struct {
	loop     *Loop
	token    func() string
	upgrader websocket.Upgrader

	handlersMu sync.RWMutex
	onPublic   []PublicHandler
	onPrivate  []PrivateHandler
	onCommand  map[string][]CommandHandler
	onConfig   []func()

	netMu    sync.RWMutex
	networks map[*websocket.Conn][]types.ServerState
}

// NewBridge 创建桥接
// token 在每次连接时读取，返回非空时要求连接携带 X-Bridge-Token
func NewBridge(loop *Loop, token func() string) *Bridge {
	return &Bridge{
		loop:  loop,
		token: token,
		upgrader: websocket.Upgrader{
			// 只监听本机地址，宿主脚本不会带 Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		onCommand: make(map[string][]CommandHandler),
		networks:  make(map[*websocket.Conn][]types.ServerState),
	}
}

// OnPublicMessage 订阅频道消息
func (b *Bridge) OnPublicMessage(h PublicHandler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.onPublic = append(b.onPublic, h)
}

// OnPrivateMessage 订阅私聊消息
func (b *Bridge) OnPrivateMessage(h PrivateHandler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.onPrivate = append(b.onPrivate, h)
}

// OnCommand 注册用户命令
func (b *Bridge) OnCommand(name string, h CommandHandler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	name = strings.ToLower(strings.TrimSpace(name))
	b.onCommand[name] = append(b.onCommand[name], h)
}

// OnConfigChanged 订阅宿主的配置变化事件
func (b *Bridge) OnConfigChanged(fn func()) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.onConfig = append(b.onConfig, fn)
}

// Networks 返回所有宿主连接上报的网络，按名称排序
func (b *Bridge) Networks() []types.ServerState {
	b.netMu.RLock()
	defer b.netMu.RUnlock()

	var out []types.ServerState
	for _, states := range b.networks {
		out = append(out, states...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Network < out[j].Network })
	return out
}

// Start 监听 addr 并阻塞直到 ctx 取消
func (b *Bridge) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           b.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warnf("关闭桥接服务失败: %v", err)
		}
	}()

	logger.Infof("宿主桥接监听 ws://%s%s", addr, BridgePath)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Handler 返回桥接的 HTTP 处理器，ctx 取消时关闭所有连接
func (b *Bridge) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(BridgePath, func(w http.ResponseWriter, r *http.Request) {
		b.handleWS(ctx, w, r)
	})
	return mux
}

func (b *Bridge) authorized(r *http.Request) bool {
	if b.token == nil {
		return true
	}
	want := b.token()
	if want == "" {
		return true
	}
	got := r.Header.Get(BridgeTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (b *Bridge) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		logger.Warnf("拒绝来自 %s 的桥接连接：令牌无效", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("桥接升级失败: %v", err)
		return
	}
	conn.SetReadLimit(maxFrameSize)
	logger.Infof("宿主已连接: %s", r.RemoteAddr)

	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-closed:
		}
	}()

	defer func() {
		close(closed)
		_ = conn.Close()
		b.netMu.Lock()
		delete(b.networks, conn)
		b.netMu.Unlock()
		logger.Infof("宿主已断开: %s", r.RemoteAddr)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("桥接读取失败: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var frame types.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Debugf("无法解析桥接帧: %v", err)
			continue
		}
		b.dispatch(ctx, conn, frame)
	}
}

func (b *Bridge) dispatch(ctx context.Context, conn *websocket.Conn, frame types.Frame) {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	switch frame.Type {
	case types.FramePublic:
		handlers := append([]PublicHandler(nil), b.onPublic...)
		b.post(func() {
			for _, h := range handlers {
				h(ctx, frame.Server, frame.Text, frame.Nick, frame.Mask, frame.Channel)
			}
		})
	case types.FramePrivate:
		handlers := append([]PrivateHandler(nil), b.onPrivate...)
		b.post(func() {
			for _, h := range handlers {
				h(ctx, frame.Server, frame.Text, frame.Nick, frame.Address)
			}
		})
	case types.FrameNetworks:
		b.netMu.Lock()
		b.networks[conn] = append([]types.ServerState(nil), frame.Networks...)
		b.netMu.Unlock()
	case types.FrameCommand:
		name := strings.ToLower(strings.TrimSpace(frame.Name))
		handlers := append([]CommandHandler(nil), b.onCommand[name]...)
		if len(handlers) == 0 {
			logger.Debugf("未知命令: %q", frame.Name)
			return
		}
		b.post(func() {
			for _, h := range handlers {
				h(ctx)
			}
		})
	case types.FrameConfig:
		handlers := append([]func(){}, b.onConfig...)
		b.post(func() {
			for _, h := range handlers {
				h()
			}
		})
	default:
		logger.Debugf("忽略未知帧类型: %q", frame.Type)
	}
}

func (b *Bridge) post(fn func()) {
	if !b.loop.Post(fn) {
		logger.Debugf("分发循环已停止，丢弃桥接事件")
	}
}
