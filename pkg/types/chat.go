package types

// ServerState 表示宿主中一个已连接的聊天网络会话
type ServerState struct {
	Network string `json:"network"` // 稳定的网络标识
	Away    bool   `json:"away"`    // 离开状态
	Nick    string `json:"nick"`    // 用户当前昵称
}

// 桥接帧类型
const (
	FramePublic   = "public"
	FramePrivate  = "private"
	FrameNetworks = "networks"
	FrameCommand  = "command"
	FrameConfig   = "config"
)

// Frame 宿主桥接的 JSON 帧
type Frame struct {
	Type     string        `json:"type"`
	Server   ServerState   `json:"server"`
	Text     string        `json:"text,omitempty"`
	Nick     string        `json:"nick,omitempty"`
	Mask     string        `json:"mask,omitempty"`
	Channel  string        `json:"channel,omitempty"`
	Address  string        `json:"address,omitempty"`
	Networks []ServerState `json:"networks,omitempty"`
	Name     string        `json:"name,omitempty"` // 命令名
}
