package types

// BridgeConfig 表示宿主桥接端点配置
type BridgeConfig struct {
	Listen string `json:"listen"` // 监听地址，默认 127.0.0.1:26145
	Token  string `json:"token"`  // 可选的共享密钥，非空时要求 X-Bridge-Token 头
}

// Config 表示应用配置
type Config struct {
	Server        string `json:"server"`          // 中继服务器主机名
	Port          int    `json:"port"`            // 中继服务器端口（1-65535）
	AuthToken     string `json:"auth_token"`      // 中继认证令牌
	AwayOnly      bool   `json:"away_only"`       // 仅在离开状态时转发
	ClearOnReturn bool   `json:"clear_on_return"` // 从离开状态返回时发送清除通知
	Debug         bool   `json:"debug"`           // 输出诊断日志

	// 宿主桥接
	Bridge BridgeConfig `json:"bridge"`
}
