package notifier

import (
	"strings"
	"unicode"

	"ircnotify/pkg/types"
)

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Escape 转义一个字段：反斜杠加倍、双引号转义、任意空白字符替换为一个空格
func Escape(s string) string {
	// Replacer 单次扫描输入，插入的反斜杠不会被再次转义
	s = escaper.Replace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}

// FormatPayload 生成写给中继的 JSON
// 中继按字节比较格式，这里不使用 encoding/json
func FormatPayload(token string, n types.Notification) string {
	var b strings.Builder
	if n.IsClear() {
		b.WriteString(`{"auth-token":"`)
		b.WriteString(Escape(token))
		b.WriteString(`","badge":0}`)
		return b.String()
	}

	b.WriteString(`{"auth-token":"`)
	b.WriteString(Escape(token))
	b.WriteString(`","message":"`)
	b.WriteString(Escape(n.Message))
	b.WriteString(`","sender":"`)
	b.WriteString(Escape(n.Sender))
	b.WriteString(`","badge": 1,"room":"`)
	b.WriteString(Escape(n.Room))
	b.WriteString(`"}`)
	return b.String()
}
