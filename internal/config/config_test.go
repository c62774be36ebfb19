package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svckit.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `{
		"Service": {
			"Name": "MyAgent",
			"DisplayName": "My Agent Service",
			"StartType": "auto",
			"StopTimeout": "90s"
		},
		"Heartbeat": {"Enabled": true, "Interval": "10s"},
		"Logging": {"Level": "debug", "FilePath": "log/agent.log"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.Name != "MyAgent" || cfg.Service.DisplayName != "My Agent Service" {
		t.Errorf("service identity = %+v", cfg.Service)
	}
	if cfg.Service.StopTimeout != 90*time.Second {
		t.Errorf("StopTimeout = %s, want 90s", cfg.Service.StopTimeout)
	}
	if !cfg.Heartbeat.Enabled || cfg.Heartbeat.Interval != 10*time.Second {
		t.Errorf("heartbeat = %+v", cfg.Heartbeat)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %s", cfg.Logging.Level)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.Name != "SvcKitAgent" {
		t.Errorf("default name = %s", cfg.Service.Name)
	}
	if cfg.Service.DisplayName != cfg.Service.Name {
		t.Errorf("display name should default to name, got %s", cfg.Service.DisplayName)
	}
	if cfg.Service.StartType != "demand" {
		t.Errorf("default start type = %s", cfg.Service.StartType)
	}
	if cfg.Service.StopTimeout != time.Minute {
		t.Errorf("default stop timeout = %s", cfg.Service.StopTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging level = %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `{"Heartbeat": {"Interval": "soon"}}`)
	if _, err := Load(path); err == nil {
		t.Error("bad duration accepted")
	}

	path = writeConfig(t, `{"Service": {"StopTimeout": "-5s"}}`)
	if _, err := Load(path); err == nil {
		t.Error("negative duration accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestFileWatcherDeliversChanges(t *testing.T) {
	path := writeConfig(t, `{}`)

	var changes int32
	fw, err := NewFileWatcher(path, func() {
		atomic.AddInt32(&changes, 1)
	})
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := fw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		if err := fw.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	}()

	if err := os.WriteFile(path, []byte(`{"Heartbeat":{"Enabled":true}}`), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for atomic.LoadInt32(&changes) == 0 {
		select {
		case <-deadline:
			t.Fatal("change notification never arrived")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFileWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svckit.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	var changes int32
	fw, err := NewFileWatcher(path, func() {
		atomic.AddInt32(&changes, 1)
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := fw.Start(); err != nil {
		t.Fatal(err)
	}
	defer fw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := atomic.LoadInt32(&changes); n != 0 {
		t.Errorf("sibling file change delivered %d notifications", n)
	}
}
