// Package config assembles the application configuration from
// defaults, an optional YAML file, LERNBOX_* environment variables and
// command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

// Config holds all application settings.
type Config struct {
	Addr         string `koanf:"addr"`
	DBPath       string `koanf:"db"`
	PageCapacity int    `koanf:"page_capacity"`
	LangFront    string `koanf:"lang_front"`
	LangBack     string `koanf:"lang_back"`
}

const envPrefix = "LERNBOX_"

func defaults() map[string]any {
	return map[string]any{
		"addr":          ":8080",
		"db":            "lernbox.db",
		"page_capacity": 2500,
		"lang_front":    "de",
		"lang_back":     "en",
	}
}

// Flags returns the flag set Load consumes. Callers parse it before
// calling Load so -help works as expected.
func Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("lernbox", flag.ExitOnError)
	fs.String("addr", ":8080", "address the web surface listens on")
	fs.String("db", "lernbox.db", "path to the sqlite database file")
	fs.String("config", "", "path to an optional YAML config file")
	fs.Int("page_capacity", 2500, "maximum encoded length of one exchange page")
	fs.String("lang_front", "de", "default front-side language tag for new decks")
	fs.String("lang_back", "en", "default back-side language tag for new decks")
	return fs
}

// Load layers the configuration sources and unmarshals the result.
func Load(fs *flag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.PageCapacity <= 0 {
		return nil, fmt.Errorf("page_capacity must be positive, got %d", cfg.PageCapacity)
	}
	return &cfg, nil
}

// LoadFromArgs parses the given command-line arguments and loads the
// configuration. Used by main; tests call Load with their own set.
func LoadFromArgs(args []string) (*Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return Load(fs)
}
