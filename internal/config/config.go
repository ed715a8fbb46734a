package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the knobs shared by the toolkit binaries.
// Every field has a baked-in default, so the binaries work with no
// settings file present.
type Config struct {
	// ToolsDir is where locally installed packaging executables live.
	ToolsDir string `yaml:"tools_dir"`
	// OutputPath is where the packaged extension archive is written.
	OutputPath string `yaml:"output_path"`
	// Remote is the git remote releases are pushed to.
	Remote string `yaml:"remote"`
	// Branch is the git branch releases are pushed to.
	Branch string `yaml:"branch"`
	// UpdateFolder is the URL where toolkit update artifacts are hosted.
	UpdateFolder string `yaml:"update_folder"`
	// Timeout is the duration for network operations and version probes.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for toolkit settings.
	DefaultConfigFilename = "ccls-tools-settings.yaml"

	// DefaultToolsDir is where npm places package-local executables.
	DefaultToolsDir = "node_modules/.bin"

	// DefaultOutputPath is the fixed location of the packaged extension.
	DefaultOutputPath = "out/ccls.vsix"

	// DefaultRemote is the git remote used when none is configured.
	DefaultRemote = "origin"

	// DefaultBranch is the git branch used when none is configured.
	DefaultBranch = "master"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration populated with the baked-in defaults.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// A missing file is not an error: the defaults are returned, matching the
// zero-configuration behavior of the original scripts.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	} else if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for empty fields and checks the rest for formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if cfg.UpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.UpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}

// applyDefaults replaces empty fields with the baked-in defaults.
func applyDefaults(cfg *Config) {
	if cfg.ToolsDir == "" {
		cfg.ToolsDir = DefaultToolsDir
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}

	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}

	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}
