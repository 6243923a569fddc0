package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"rdo-fidel/backend/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("格式 %q 应可用: %v", format, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("格式 %q: 期望启用 debug 级别", format)
		}
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("无效级别应返回错误")
	}
	if _, err := NewLogger(&config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("无效格式应返回错误")
	}
}
