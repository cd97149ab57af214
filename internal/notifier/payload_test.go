package notifier

import (
	"encoding/json"
	"strings"
	"testing"

	"ircnotify/pkg/types"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "backslash", in: `a\b`, want: `a\\b`},
		{name: "quote", in: `say "hi"`, want: `say \"hi\"`},
		{name: "backslash before quote", in: `\"`, want: `\\\"`},
		{name: "newline", in: "a\nb", want: "a b"},
		{name: "tab", in: "a\tb", want: "a b"},
		{name: "crlf keeps one space per rune", in: "a\r\nb", want: "a  b"},
		{name: "injection attempt", in: "x\",\"badge\":0,\"y\":\"", want: `x\",\"badge\":0,\"y\":\"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.in); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeNotIdempotent(t *testing.T) {
	in := `c:\path "x"`
	once := Escape(in)
	twice := Escape(once)
	if once == twice {
		t.Fatalf("escaping twice should differ from escaping once, both %q", once)
	}

	payload := FormatPayload("tok", types.NewNotification("#go", "alice", in))
	if !strings.Contains(payload, `"message":"`+once+`"`) {
		t.Errorf("payload %s does not contain message escaped exactly once (%s)", payload, once)
	}
	if strings.Contains(payload, twice) {
		t.Errorf("payload %s contains a double-escaped message", payload)
	}
}

func TestFormatPayloadNormal(t *testing.T) {
	got := FormatPayload("se\"cret", types.NewNotification("#go", "alice", "hi bob\n"))
	want := `{"auth-token":"se\"cret","message":"hi bob ","sender":"alice","badge": 1,"room":"#go"}`
	if got != want {
		t.Fatalf("FormatPayload() = %s\nwant %s", got, want)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(decoded) != 5 {
		t.Errorf("normal payload has %d keys, want 5", len(decoded))
	}
	if decoded["badge"] != float64(1) {
		t.Errorf("badge = %v, want 1", decoded["badge"])
	}
}

func TestFormatPayloadPartiallyEmpty(t *testing.T) {
	tests := []struct {
		name                  string
		room, sender, message string
	}{
		{name: "private message", sender: "alice", message: "hi"},
		{name: "only room", room: "#go"},
		{name: "only sender", sender: "alice"},
		{name: "only message", message: "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPayload("tok", types.NewNotification(tt.room, tt.sender, tt.message))
			var decoded map[string]interface{}
			if err := json.Unmarshal([]byte(got), &decoded); err != nil {
				t.Fatalf("payload is not valid JSON: %v", err)
			}
			for _, key := range []string{"auth-token", "message", "sender", "badge", "room"} {
				if _, ok := decoded[key]; !ok {
					t.Errorf("payload %s missing key %q", got, key)
				}
			}
			if !strings.Contains(got, `"badge": 1`) {
				t.Errorf("payload %s does not carry literal badge 1", got)
			}
		})
	}
}

func TestFormatPayloadClear(t *testing.T) {
	got := FormatPayload("tok\\en", types.NewNotification("", "", ""))
	want := `{"auth-token":"tok\\en","badge":0}`
	if got != want {
		t.Fatalf("FormatPayload() = %s, want %s", got, want)
	}
}
