package logging

import (
	"path/filepath"
	"testing"
)

func TestInitLoggerAndSetLogLevelFallback(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "analyzer.log")
	InitLogger(logFile, 1, 1, 1, false, "invalid")
	SetLogLevel("invalid")
	Info("hello", "k", "v")
	Warn("warn")
	Error("error")
}

func TestInitLoggerWithoutFile(t *testing.T) {
	InitLogger("", 0, 0, 0, false, "debug")
	Info("stdout only")
}
