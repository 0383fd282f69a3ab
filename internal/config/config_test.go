package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PreviewIntervalMS != DefaultConfig().PreviewIntervalMS {
		t.Errorf("PreviewIntervalMS = %d, want default", cfg.PreviewIntervalMS)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.PreviewIntervalMS = 200
	cfg.TmuxHistoryLimit = 10000

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PreviewIntervalMS != 200 || loaded.TmuxHistoryLimit != 10000 {
		t.Errorf("loaded = %+v, want PreviewIntervalMS=200 TmuxHistoryLimit=10000", loaded)
	}
}

func TestSavePreservesUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("detach_key: \"q\"\npreview_interval_ms: 150\ntmux_history_limit: 5000\nenable_mouse_scroll: true\nfuture_feature: 42\n"), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.PreviewIntervalMS = 175
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "future_feature") {
		t.Errorf("saved config dropped unknown key future_feature:\n%s", raw)
	}
}

func TestDetachKeyDefaultsToCtrlQ(t *testing.T) {
	cfg := Config{}
	if cfg.DetachKey() != 0x11 {
		t.Errorf("DetachKey() = %#x, want 0x11", cfg.DetachKey())
	}
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml"), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PreviewIntervalMS != DefaultConfig().PreviewIntervalMS {
		t.Errorf("PreviewIntervalMS = %d, want default after corrupt parse", cfg.PreviewIntervalMS)
	}
}
