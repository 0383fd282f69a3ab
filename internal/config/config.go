// Package config loads and saves ciab's runtime configuration: the
// detach key, preview cadence, tmux history limit, and config root path
// (the worktree root lives under it). Unknown keys in the on-disk file round-trip untouched, so
// a newer ciab and an older one can share a config file without data
// loss.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const maxConfigFileBytes int64 = 1 << 20 // 1MB

// Config is ciab's on-disk runtime configuration.
type Config struct {
	// DetachKeyRune names the single key (by rune) that detaches an
	// attached session back to the TUI; tmux's own detach sequence is
	// injected after this key is observed.
	DetachKeyRune string `yaml:"detach_key"`
	// PreviewIntervalMS is the Preview Loop's ticker period, spec.md
	// §4.8's 100-250ms default range.
	PreviewIntervalMS int `yaml:"preview_interval_ms"`
	// TmuxHistoryLimit bounds each session's scrollback buffer.
	TmuxHistoryLimit int `yaml:"tmux_history_limit"`
	// EnableMouseScroll toggles tmux mouse mode on newly created sessions.
	EnableMouseScroll bool `yaml:"enable_mouse_scroll"`
	// ConfigRoot is the directory holding sessions/, worktrees/, and
	// auth/. Empty means DefaultConfigRoot().
	ConfigRoot string `yaml:"config_root,omitempty"`

	// unknown preserves any keys this version of ciab doesn't recognize,
	// so Save round-trips them instead of silently dropping them.
	unknown map[string]any
}

// DetachKey returns the configured detach key as a byte, defaulting to
// Ctrl+Q (0x11) if unset or unparsable.
func (c Config) DetachKey() byte {
	if c.DetachKeyRune == "" {
		return 0x11
	}
	r := []rune(c.DetachKeyRune)
	if len(r) == 1 {
		return byte(r[0])
	}
	return 0x11
}

// DefaultConfig returns ciab's built-in defaults.
func DefaultConfig() Config {
	return Config{
		DetachKeyRune:     string(rune(0x11)),
		PreviewIntervalMS: 150,
		TmuxHistoryLimit:  5000,
		EnableMouseScroll: true,
	}
}

// DefaultConfigRoot resolves the config root under the user's home
// directory, following the teacher pack's XDG-ish ~/.config convention.
func DefaultConfigRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ciab"), nil
}

// DefaultPath resolves the config file path under the config root.
func DefaultPath() (string, error) {
	root, err := DefaultConfigRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "config.yaml"), nil
}

// Load reads the config file at path, returning defaults if it does not
// exist. A parse failure also returns defaults, logged rather than
// fatal, so a corrupted config file never blocks start-up.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := readLimited(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("config: failed to parse, using defaults", "path", path, "err", err)
		return DefaultConfig(), nil
	}

	var rawMap map[string]any
	if err := yaml.Unmarshal(raw, &rawMap); err == nil {
		delete(rawMap, "detach_key")
		delete(rawMap, "preview_interval_ms")
		delete(rawMap, "tmux_history_limit")
		delete(rawMap, "enable_mouse_scroll")
		delete(rawMap, "config_root")
		cfg.unknown = rawMap
	}

	return cfg, nil
}

// Save writes cfg to path using write-tmp + atomic rename, merging back
// any unknown keys captured by Load so a round-trip never drops fields
// a newer version of ciab added.
func Save(path string, cfg Config) error {
	merged := map[string]any{
		"detach_key":          cfg.DetachKeyRune,
		"preview_interval_ms": cfg.PreviewIntervalMS,
		"tmux_history_limit":  cfg.TmuxHistoryLimit,
		"enable_mouse_scroll": cfg.EnableMouseScroll,
	}
	if cfg.ConfigRoot != "" {
		merged["config_root"] = cfg.ConfigRoot
	}
	for k, v := range cfg.unknown {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("config: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: renaming temp file: %w", err)
	}
	return nil
}

func readLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("config: file %s exceeds %d bytes", path, limit)
	}
	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return buf, err
	}
	return buf, nil
}
