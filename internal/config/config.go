// Package config provides configuration management for shardctl.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (SHARDCTL_*)
// 3. Project config (.shardctl/config.yaml in cwd)
// 4. Home config (~/.shardctl/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all shardctl configuration.
type Config struct {
	// Output controls the default output format (table, json).
	Output string `yaml:"output" json:"output"`

	// BaseDir is the shardctl data directory (default: .shardctl).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	Verbose bool `yaml:"verbose" json:"verbose"`

	Balancer  BalancerConfig  `yaml:"balancer" json:"balancer"`
	Runner    RunnerConfig    `yaml:"runner" json:"runner"`
	Notify    NotifyConfig    `yaml:"notify" json:"notify"`
	Corpus    CorpusConfig    `yaml:"corpus" json:"corpus"`
}

// BalancerConfig holds shard-balancing settings.
type BalancerConfig struct {
	// Strategy names the registered balancing strategy (lpt, round-robin, file-group).
	Strategy string `yaml:"strategy" json:"strategy"`

	// TargetDurationMS is the desired per-shard duration used to derive an
	// optimal shard count when one isn't given explicitly.
	TargetDurationMS int `yaml:"target_duration_ms" json:"target_duration_ms"`

	// MaxShards upper-bounds the derived shard count.
	MaxShards int `yaml:"max_shards" json:"max_shards"`

	// RiskFactor pads estimates by this many standard deviations.
	RiskFactor int `yaml:"risk_factor" json:"risk_factor"`

	// DefaultDurationMS estimates a never-before-seen test's duration.
	DefaultDurationMS int `yaml:"default_duration_ms" json:"default_duration_ms"`
}

// RunnerConfig holds child-process spawn settings.
type RunnerConfig struct {
	// Command is the test-runner binary invoked per shard.
	// Default: "npx playwright test".
	Command string `yaml:"command" json:"command"`

	// Args are extra arguments appended before the file-list or --shard flag.
	Args []string `yaml:"args" json:"args"`
}

// NotifyConfig holds integration-target settings.
type NotifyConfig struct {
	// ReportURL is the optional link embedded in comment/chat payloads.
	ReportURL string `yaml:"report_url" json:"report_url"`
}

// CorpusConfig holds on-disk corpus file locations.
type CorpusConfig struct {
	TimingFile  string `yaml:"timing_file" json:"timing_file"`
	HistoryFile string `yaml:"history_file" json:"history_file"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput   = "table"
	defaultBaseDir  = ".shardctl"
	defaultStrategy = "lpt"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:  defaultOutput,
		BaseDir: defaultBaseDir,
		Verbose: false,
		Balancer: BalancerConfig{
			Strategy:          defaultStrategy,
			TargetDurationMS:  0,
			MaxShards:         8,
			RiskFactor:        1,
			DefaultDurationMS: 30000,
		},
		Runner: RunnerConfig{
			Command: "npx playwright test",
		},
		Corpus: CorpusConfig{
			TimingFile:  filepath.Join(defaultBaseDir, "timing.json"),
			HistoryFile: filepath.Join(defaultBaseDir, "history.json"),
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	if homeConfig, _ := loadFromPath(homeConfigPath()); homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	if projectConfig, _ := loadFromPath(projectConfigPath()); projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".shardctl", "config.yaml")
}

func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("SHARDCTL_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".shardctl", "config.yaml")
}

func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("SHARDCTL_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("SHARDCTL_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("SHARDCTL_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("SHARDCTL_BALANCER_STRATEGY"); v != "" {
		cfg.Balancer.Strategy = v
	}
	if v := os.Getenv("SHARDCTL_RUNNER_COMMAND"); v != "" {
		cfg.Runner.Command = v
	}
	if v := os.Getenv("SHARDCTL_NOTIFY_REPORT_URL"); v != "" {
		cfg.Notify.ReportURL = v
	}
	return cfg
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.BaseDir != "" {
		dst.BaseDir = src.BaseDir
	}
	if src.Verbose {
		dst.Verbose = true
	}

	if src.Balancer.Strategy != "" {
		dst.Balancer.Strategy = src.Balancer.Strategy
	}
	if src.Balancer.TargetDurationMS != 0 {
		dst.Balancer.TargetDurationMS = src.Balancer.TargetDurationMS
	}
	if src.Balancer.MaxShards != 0 {
		dst.Balancer.MaxShards = src.Balancer.MaxShards
	}
	if src.Balancer.RiskFactor != 0 {
		dst.Balancer.RiskFactor = src.Balancer.RiskFactor
	}
	if src.Balancer.DefaultDurationMS != 0 {
		dst.Balancer.DefaultDurationMS = src.Balancer.DefaultDurationMS
	}

	if src.Runner.Command != "" {
		dst.Runner.Command = src.Runner.Command
	}
	if len(src.Runner.Args) != 0 {
		dst.Runner.Args = src.Runner.Args
	}

	if src.Notify.ReportURL != "" {
		dst.Notify.ReportURL = src.Notify.ReportURL
	}

	if src.Corpus.TimingFile != "" {
		dst.Corpus.TimingFile = src.Corpus.TimingFile
	}
	if src.Corpus.HistoryFile != "" {
		dst.Corpus.HistoryFile = src.Corpus.HistoryFile
	}

	return dst
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.shardctl/config.yaml"
	SourceProject Source = ".shardctl/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)
