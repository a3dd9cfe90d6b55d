package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TICKETSYNC_"
	envConfig  = envPrefix + "CONFIG"
	envDotfile = envPrefix + "ENV_FILE"
)

// Load builds a Config by layering defaults, an optional dotenv file, an
// optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env (or TICKETSYNC_ENV_FILE) exported into the process environment
//  3. file (YAML) if TICKETSYNC_CONFIG is set
//  4. env (prefix TICKETSYNC_, "__" separates nested keys)
func Load() (*Config, error) {
	base := New()

	// godotenv never overrides variables that are already set.
	dotfile := os.Getenv(envDotfile)
	if dotfile == "" {
		dotfile = ".env"
	}
	if err := godotenv.Load(dotfile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, loadFailed(dotfile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, loadFailed(path, err)
		}
	}

	// TICKETSYNC_CACHE_TTL -> cache_ttl, TICKETSYNC_SHEETS__SHEET_NAME ->
	// sheets.sheet_name. Status lists are comma separated.
	envProvider := env.ProviderWithValue(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, loadFailed("env", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, loadFailed("unmarshal", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	switch key {
	case "config", "env_file":
		return "", nil
	}
	key = strings.ReplaceAll(key, "__", ".")
	if strings.HasPrefix(key, "statuses.") {
		var lits []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				lits = append(lits, s)
			}
		}
		return key, lits
	}
	return key, value
}
