package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitWritesToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(dir, "test.log")
	cfg.Console = false

	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	log := WithComponent("test")
	log.Info().Str("key", "value").Msg("hello")

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var entry map[string]any
	line := bytes.TrimSpace(bytes.SplitN(data, []byte("\n"), 2)[0])
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	if entry["component"] != "test" || entry["key"] != "value" || entry["message"] != "hello" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestInitCreatesLogDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "log")
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(dir, "svckit.log")
	cfg.Console = false

	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Level = "chatty"
	cfg.FilePath = filepath.Join(dir, "test.log")
	cfg.Console = false

	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Logger().Debug().Msg("below info")
	Logger().Info().Msg("at info")

	data, _ := os.ReadFile(cfg.FilePath)
	if strings.Contains(string(data), "below info") {
		t.Error("debug message logged despite info fallback")
	}
	if !strings.Contains(string(data), "at info") {
		t.Error("info message not logged")
	}
}

func TestAsyncWriterDropsWhenFull(t *testing.T) {
	blocked := make(chan struct{})
	aw := newAsyncWriter(blockingWriter{blocked}, 1)
	defer func() {
		close(blocked)
		aw.Close()
	}()

	// First write is picked up by the drainer and blocks it; the rest
	// fill and then overflow the buffer. None of this may block us.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			aw.Write([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write blocked on a stuck writer")
	}
}

type blockingWriter struct {
	release chan struct{}
}

func (w blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}
