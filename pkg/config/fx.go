package config

import (
	"os"

	"go.uber.org/fx"
)

// Loader loads the configuration of the current directory. It returns nil
// without an error when no config file exists so that commands which don't
// need one (init, gen-ref, help) still work.
type Loader func() (*Config, error)

var Module = fx.Module("config", fx.Provide(
	func() Loader { return Load },
))

// Load discovers the config file in the working directory, decodes it and
// applies SCHEMA_* environment overrides. Commands call it after the root
// command has switched to the --dir directory.
func Load() (*Config, error) {
	path, ok := Discover(".")
	if !ok {
		return nil, nil
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Static returns a Loader that always yields cfg.
func Static(cfg *Config) Loader {
	return func() (*Config, error) { return cfg, nil }
}
