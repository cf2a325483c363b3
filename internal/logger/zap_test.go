package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": defaultZapLevel,
		"":        defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewAndNamed(t *testing.T) {
	l := New(Options{Level: DebugLevel, Encoding: JSONEncoding})
	if l == nil || l.SugaredLogger == nil {
		t.Fatal("expected non-nil logger")
	}
	child := l.Named("trigger")
	if child == nil || child.SugaredLogger == nil {
		t.Fatal("expected non-nil child logger")
	}
	Nop().Infow("discarded", "k", "v")
}
