package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/artisanhosting/artisan-cli/internal/app"
)

// envPrefix is stripped from environment variables during config loading (e.g., ARTISAN_API__BASE_URL → api.base_url)
const envPrefix = "ARTISAN_"

// loadConfig merges configuration sources, later ones winning:
// config file → environment variables → CLI flags, then fills defaults.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), value
		},
		EnvironFunc: environFunc,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(setFlags(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	cfg := &app.Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// envKey maps ARTISAN_STATE__DIR to state.dir.
func envKey(name string) string {
	stripped := strings.TrimPrefix(name, envPrefix)
	return strings.ToLower(strings.ReplaceAll(stripped, "__", "."))
}

// flagKey maps --api--base-url to api.base_url.
func flagKey(name string) string {
	key := strings.ReplaceAll(name, "--", ".")
	return strings.ReplaceAll(key, "-", "_")
}

// setFlags collects explicitly set flags, including those of parent commands.
// Unset flags are skipped so they don't shadow file and environment values.
func setFlags(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	for _, name := range cmd.FlagNames() {
		if name == "config" || !cmd.IsSet(name) {
			continue
		}
		if value := cmd.Value(name); value != nil {
			values[flagKey(name)] = value
		}
	}

	return values
}
