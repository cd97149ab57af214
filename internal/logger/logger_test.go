package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "\x1b[36mINFO\x1b[0m done", want: "INFO done"},
		{in: "\x1b[1;31mERRO\x1b[0m", want: "ERRO"},
		{in: "cut \x1b[3", want: "cut "},
	}

	for _, tt := range tests {
		if got := string(stripANSI([]byte(tt.in))); got != tt.want {
			t.Errorf("stripANSI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetDebug(t *testing.T) {
	if err := Init("info", ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)

	Debugf("hidden %d", 1)
	if DebugEnabled() || buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}

	SetDebug(true)
	Debugf("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Fatalf("debug line missing: %q", buf.String())
	}

	SetDebug(false)
	if DebugEnabled() {
		t.Error("DebugEnabled() = true after SetDebug(false)")
	}
}

func TestInitWritesFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init("info", dir); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Info("hello file")

	matches, _ := filepath.Glob(filepath.Join(dir, "ircnotify-*.log"))
	if len(matches) != 1 {
		t.Fatalf("log files = %v, want 1", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("log file missing line: %q", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Errorf("log file contains color codes: %q", data)
	}
	_ = Init("info", "")
}
