package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before mapping them to
// config keys: EGGLOG_ENGINE_BIN -> engine_bin.
const envPrefix = "EGGLOG_"

// Load reads configuration from the given file (or, when empty, from
// egglog.yaml/egglog.yml in the working directory), overlays EGGLOG_
// environment variables, and applies defaults. A missing config file is
// not an error.
func Load(cfgFile string) (*Config, error) {
	k := koanf.New(".")

	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ApplyDefaults()
	// An explicit empty journal_path (file or environment) opts out of
	// journaling; only a wholly absent key gets the default.
	if !k.Exists("journal_path") && cfg.JournalPath == "" {
		cfg.JournalPath = DefaultJournalPath
	}
	return &cfg, nil
}

// findConfigFile finds the config file to use.
// Priority: explicit path > egglog.yaml > egglog.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// LoadFromDir loads configuration from a directory, looking for
// egglog.yaml or egglog.yml. Returns nil, nil when neither exists.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}
	}
	return nil, nil
}
