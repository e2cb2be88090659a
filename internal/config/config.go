package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/dshills/histshrink/internal/histfile"
	"github.com/dshills/histshrink/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "HISTSHRINK_"

// Config represents the histshrink configuration.
type Config struct {
	History HistoryConfig  `koanf:"history"`
	Filter  FilterConfig   `koanf:"filter"`
	Secrets SecretsConfig  `koanf:"secrets"`
	Backup  BackupConfig   `koanf:"backup"`
	Log     logging.Config `koanf:"log"`
	Report  ReportConfig   `koanf:"report"`
}

// HistoryConfig selects the history file and its layout.
type HistoryConfig struct {
	File   string `koanf:"file"`
	Format string `koanf:"format"`
}

// FilterConfig controls dedup and exclusion.
type FilterConfig struct {
	Dedup               bool     `koanf:"dedup"`
	Keep                string   `koanf:"keep"`
	NormalizeWhitespace bool     `koanf:"normalize_whitespace"`
	MinLength           int      `koanf:"min_length"`
	Exclude             []string `koanf:"exclude"`
	CommonExcludes      bool     `koanf:"common_excludes"`
}

// SecretsConfig controls secret detection.
type SecretsConfig struct {
	Mode         string   `koanf:"mode"`
	Gitleaks     bool     `koanf:"gitleaks"`
	RulesFile    string   `koanf:"rules_file"`
	FlagPatterns []string `koanf:"flag_patterns"`
}

// BackupConfig controls backups taken before in-place rewrites.
type BackupConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Dir           string `koanf:"dir"`
	RetentionDays int    `koanf:"retention_days"`
}

// ReportConfig controls the run report.
type ReportConfig struct {
	Format string `koanf:"format"`
	FailOn string `koanf:"fail_on"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		History: HistoryConfig{Format: "auto"},
		Filter: FilterConfig{
			Dedup:               true,
			Keep:                "first",
			NormalizeWhitespace: true,
		},
		Secrets: SecretsConfig{Mode: "drop"},
		Backup: BackupConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Log:    logging.Config{Level: "warn", Format: "console"},
		Report: ReportConfig{Format: "text", FailOn: "none"},
	}
}

// Keys returns the config as a flat map of dotted keys. Nil lists are omitted.
func (c Config) Keys() map[string]any {
	m := map[string]any{
		"history.file":                c.History.File,
		"history.format":              c.History.Format,
		"filter.dedup":                c.Filter.Dedup,
		"filter.keep":                 c.Filter.Keep,
		"filter.normalize_whitespace": c.Filter.NormalizeWhitespace,
		"filter.min_length":           c.Filter.MinLength,
		"filter.common_excludes":      c.Filter.CommonExcludes,
		"secrets.mode":                c.Secrets.Mode,
		"secrets.gitleaks":            c.Secrets.Gitleaks,
		"secrets.rules_file":          c.Secrets.RulesFile,
		"backup.enabled":              c.Backup.Enabled,
		"backup.dir":                  c.Backup.Dir,
		"backup.retention_days":       c.Backup.RetentionDays,
		"log.level":                   c.Log.Level,
		"log.format":                  c.Log.Format,
		"report.format":               c.Report.Format,
		"report.fail_on":              c.Report.FailOn,
	}
	if c.Filter.Exclude != nil {
		m["filter.exclude"] = c.Filter.Exclude
	}
	if c.Secrets.FlagPatterns != nil {
		m["secrets.flag_patterns"] = c.Secrets.FlagPatterns
	}
	return m
}

// KeyNames returns every settable key, sorted.
func KeyNames() []string {
	cfg := Default()
	cfg.Filter.Exclude = []string{}
	cfg.Secrets.FlagPatterns = []string{}
	var names []string
	for k := range cfg.Keys() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	switch strings.ToLower(c.History.Format) {
	case "", "auto", "plain", "bash", "zsh":
	default:
		return fmt.Errorf("history.format must be auto, plain, bash or zsh, got %q", c.History.Format)
	}
	switch c.Filter.Keep {
	case "first", "last":
	default:
		return fmt.Errorf("filter.keep must be first or last, got %q", c.Filter.Keep)
	}
	if c.Filter.MinLength < 0 {
		return fmt.Errorf("filter.min_length must be >= 0, got %d", c.Filter.MinLength)
	}
	// Report-only scanning is selected by the scan command, never by config.
	switch c.Secrets.Mode {
	case "drop", "redact":
	default:
		return fmt.Errorf("secrets.mode must be drop or redact, got %q", c.Secrets.Mode)
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup.retention_days must be >= 0, got %d", c.Backup.RetentionDays)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	switch c.Report.Format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("report.format must be text, json or markdown, got %q", c.Report.Format)
	}
	switch c.Report.FailOn {
	case "none", "low", "medium", "high":
	default:
		return fmt.Errorf("report.fail_on must be none, low, medium or high, got %q", c.Report.FailOn)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for histshrink.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "histshrink"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "histshrink"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "histshrink"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "histshrink"), nil
	default:
		return filepath.Join(home, ".config", "histshrink"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile returns the defaults merged with the config file, ignoring the
// environment. A missing file yields the defaults.
func LoadFile() (Config, error) {
	k, err := newKoanf()
	if err != nil {
		return Config{}, err
	}
	return unmarshal(k)
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return histfile.WriteAtomic(path, string(data))
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	k := koanf.New(".")
	if err := setAll(k, cfg.Keys()); err != nil {
		return nil, err
	}
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags, keyed by dotted config key (only
// non-empty values are applied).
func Load(overrides map[string]string) (Config, error) {
	k, err := newKoanf()
	if err != nil {
		return Config{}, err
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return Config{}, err
	}
	if cfg.History.File == "" {
		cfg.History.File = os.Getenv("HISTFILE")
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newKoanf returns a koanf instance holding the defaults and the config file.
func newKoanf() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := setAll(k, Default().Keys()); err != nil {
		return nil, err
	}

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return k, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return k, nil
}

func setAll(k *koanf.Koanf, keys map[string]any) error {
	for key, v := range keys {
		if err := k.Set(key, v); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}

func unmarshal(k *koanf.Koanf) (Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// envKey maps HISTSHRINK_FILTER_MIN_LENGTH to filter.min_length by splitting
// on the first underscore after the prefix.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := overrides[k]; v != "" {
			if err := SetField(cfg, k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "history.file":
		cfg.History.File = value
	case "history.format":
		cfg.History.Format = value
	case "filter.dedup":
		return setBool(&cfg.Filter.Dedup, key, value)
	case "filter.keep":
		cfg.Filter.Keep = value
	case "filter.normalize_whitespace":
		return setBool(&cfg.Filter.NormalizeWhitespace, key, value)
	case "filter.min_length":
		return setInt(&cfg.Filter.MinLength, key, value)
	case "filter.exclude":
		cfg.Filter.Exclude = splitList(value)
	case "filter.common_excludes":
		return setBool(&cfg.Filter.CommonExcludes, key, value)
	case "secrets.mode":
		cfg.Secrets.Mode = value
	case "secrets.gitleaks":
		return setBool(&cfg.Secrets.Gitleaks, key, value)
	case "secrets.rules_file":
		cfg.Secrets.RulesFile = value
	case "secrets.flag_patterns":
		cfg.Secrets.FlagPatterns = splitList(value)
	case "backup.enabled":
		return setBool(&cfg.Backup.Enabled, key, value)
	case "backup.dir":
		cfg.Backup.Dir = value
	case "backup.retention_days":
		return setInt(&cfg.Backup.RetentionDays, key, value)
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "report.format":
		cfg.Report.Format = value
	case "report.fail_on":
		cfg.Report.FailOn = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

// splitList splits a comma-separated value. An empty value yields an empty,
// non-nil list so that it can clear a setting.
func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
