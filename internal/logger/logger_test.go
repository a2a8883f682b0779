package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNoopLogger(t *testing.T) {
	logger := &NoopLogger{}

	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")
	logger.Debugf("test %s", "debug")
	logger.Infof("test %s", "info")
	logger.Warnf("test %s", "warn")
	logger.Errorf("test %s", "error")
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, slog.LevelDebug)

	tests := []struct {
		name     string
		logFunc  func()
		expected string
		level    string
	}{
		{"Debug", func() { logger.Debug("debug message") }, "debug message", "DEBUG"},
		{"Info", func() { logger.Info("info message") }, "info message", "INFO"},
		{"Warn", func() { logger.Warn("warn message") }, "warn message", "WARN"},
		{"Error", func() { logger.Error("error message") }, "error message", "ERROR"},
		{"Debugf", func() { logger.Debugf("debug %s", "formatted") }, "debug formatted", "DEBUG"},
		{"Infof", func() { logger.Infof("info %s", "formatted") }, "info formatted", "INFO"},
		{"Warnf", func() { logger.Warnf("warn %s", "formatted") }, "warn formatted", "WARN"},
		{"Errorf", func() { logger.Errorf("error %s", "formatted") }, "error formatted", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			output := buf.String()
			if !strings.Contains(output, tt.expected) {
				t.Errorf("Expected log output to contain %q, got %q", tt.expected, output)
			}
			if !strings.Contains(output, tt.level) {
				t.Errorf("Expected log output to contain level %q, got %q", tt.level, output)
			}
		})
	}
}

func TestSlogLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn output, got %q", buf.String())
	}
}

func TestSlogLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, slog.LevelInfo).With("run", "abc")

	logger.Info("hello", "file", "report.pdf")
	output := buf.String()
	for _, want := range []string{"run=abc", "file=report.pdf", "hello"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got %q", want, output)
		}
	}
}

func TestInfofWithoutArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, slog.LevelInfo)

	msg := "100% done"
	// Called through function values so vet's printf check does not reject
	// the deliberately non-constant format with zero args.
	infof, format := logger.Infof, sprintf
	infof(msg)
	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("Expected message untouched, got %q", buf.String())
	}
	if got := format(msg); got != msg {
		t.Errorf("Expected %q, got %q", msg, got)
	}
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger(true)
	if _, ok := logger.(*SlogLogger); !ok {
		t.Errorf("Expected NewDefaultLogger to return *SlogLogger, got %T", logger)
	}
}
