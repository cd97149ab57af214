package types

// Notification 表示一次推送给中继的通知
type Notification struct {
	Room    string `json:"room"`    // 频道名，私聊为空
	Sender  string `json:"sender"`  // 发送者昵称，清除通知为空
	Message string `json:"message"` // 消息正文，清除通知为空
	Badge   int    `json:"badge"`   // 普通通知为 1，清除通知为 0
}

// NewNotification 根据 (room, sender, message) 构造通知
// 三者全为空时构造清除通知
func NewNotification(room, sender, message string) Notification {
	n := Notification{Room: room, Sender: sender, Message: message, Badge: 1}
	if n.IsClear() {
		n.Badge = 0
	}
	return n
}

// IsClear 是否为清除通知
func (n Notification) IsClear() bool {
	return n.Room == "" && n.Sender == "" && n.Message == ""
}
