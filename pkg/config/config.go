package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/consts"
	"gopkg.in/yaml.v3"
)

const (
	TypeMemory     = "memory"
	TypeClickHouse = "clickhouse"
	TypePostgres   = "postgres"
	TypeSQLite     = "sqlite"

	// EnvPrefix is prepended to upper-cased keys for environment overrides,
	// e.g. SCHEMA_DB_NAME.
	EnvPrefix = "SCHEMA_"
)

// Format identifies the encoding of a configuration file.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// Filenames are the config files Discover looks for, in order. JSON is read
// with the YAML decoder.
var Filenames = []string{"schema.yaml", "schema.yml", "config.json", "schema.toml"}

var knownTypes = []string{TypeMemory, TypeClickHouse, TypePostgres, TypeSQLite}

type (
	// Config describes the target database, where alters live and how the
	// history table is named.
	Config struct {
		// Type selects the database backend: memory, clickhouse, postgres or sqlite.
		Type string `yaml:"type" toml:"type"`

		Host     string `yaml:"host" toml:"host"`
		Port     int    `yaml:"port" toml:"port"`
		Username string `yaml:"username" toml:"username"`
		Password string `yaml:"password" toml:"password"`

		// DBName is the database alters run against. For sqlite it is the path
		// of the database file.
		DBName string `yaml:"db_name" toml:"db_name"`

		// RevisionDBName is where the history table lives. Defaults to DBName.
		RevisionDBName string `yaml:"revision_db_name" toml:"revision_db_name"`

		// RevisionSchemaName is the postgres schema holding the history table.
		RevisionSchemaName string `yaml:"revision_schema_name" toml:"revision_schema_name"`

		HistoryTableName string `yaml:"history_table_name" toml:"history_table_name"`

		// Env is matched against require-env/skip-env headers. Empty runs everything.
		Env string `yaml:"env" toml:"env"`

		AlterDir       string `yaml:"alter_dir" toml:"alter_dir"`
		StaticAlterDir string `yaml:"static_alter_dir" toml:"static_alter_dir"`
		PreCommitHook  string `yaml:"pre_commit_hook" toml:"pre_commit_hook"`

		// Git controls whether resolve stages renamed files with git.
		Git *bool `yaml:"git" toml:"git"`

		// ClientCommand replaces the SQL client argv used to run alters.
		ClientCommand []string `yaml:"client_command" toml:"client_command"`
	}

	// ConfigError reports an invalid configuration value.
	ConfigError struct {
		Key string
		Msg string
	}
)

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return e.Msg
	}

	return fmt.Sprintf("invalid %s: %s", e.Key, e.Msg)
}

// LoadConfig decodes a configuration in the given format and applies defaults.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader("type: memory\n"), config.FormatYAML)
//	if err != nil {
//		return err
//	}
//
//	fmt.Println(cfg.HistoryTableName) // history
func LoadConfig(r io.Reader, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal schema config")
		}
	default:
		// an empty file decodes to the defaults
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "failed to unmarshal schema config")
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadConfigFile loads the file at path, choosing the decoder from its extension.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f, FormatFor(path))
}

// FormatFor returns the format implied by a file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}

	return FormatYAML
}

// Discover returns the path of the first known config file in dir. The
// returned bool is false when none exists.
func Discover(dir string) (string, bool) {
	for _, name := range Filenames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	return "", false
}

// GitEnabled reports whether resolve should run git commands.
func (c *Config) GitEnabled() bool {
	return c.Git == nil || *c.Git
}

// RevisionDB returns the database holding the history table.
func (c *Config) RevisionDB() string {
	if c.RevisionDBName != "" {
		return c.RevisionDBName
	}

	return c.DBName
}

// Validate checks the configuration for values no backend can work with.
func (c *Config) Validate() error {
	if !slices.Contains(knownTypes, c.Type) {
		return &ConfigError{Key: "type", Msg: fmt.Sprintf("unknown database type '%s'", c.Type)}
	}

	if c.Env != "" && !consts.EnvNameStandard.MatchString(c.Env) {
		return &ConfigError{Key: "env", Msg: fmt.Sprintf("Invalid environment name: '%s'", c.Env)}
	}

	switch c.Type {
	case TypeClickHouse:
		if c.Host == "" {
			return &ConfigError{Key: "host", Msg: "required for clickhouse"}
		}
	case TypePostgres:
		if c.Host == "" {
			return &ConfigError{Key: "host", Msg: "required for postgres"}
		}
		if c.RevisionSchemaName == "" {
			return &ConfigError{Key: "revision_schema_name", Msg: "required for postgres"}
		}
	case TypeSQLite:
		if c.RevisionDB() == "" {
			return &ConfigError{Key: "db_name", Msg: "required for sqlite"}
		}
	}

	return nil
}

// ApplyEnv overrides values from SCHEMA_<KEY> environment variables, looked up
// with lookup (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"type":                 &c.Type,
		"host":                 &c.Host,
		"username":             &c.Username,
		"password":             &c.Password,
		"db_name":              &c.DBName,
		"revision_db_name":     &c.RevisionDBName,
		"revision_schema_name": &c.RevisionSchemaName,
		"history_table_name":   &c.HistoryTableName,
		"env":                  &c.Env,
		"alter_dir":            &c.AlterDir,
		"static_alter_dir":     &c.StaticAlterDir,
		"pre_commit_hook":      &c.PreCommitHook,
	}

	for key, dst := range strs {
		if v, ok := lookup(envKey(key)); ok {
			*dst = v
		}
	}

	if v, ok := lookup(envKey("port")); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Key: "port", Msg: fmt.Sprintf("'%s' is not a number", v)}
		}
		c.Port = port
	}

	if v, ok := lookup(envKey("git")); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Key: "git", Msg: fmt.Sprintf("'%s' is not a boolean", v)}
		}
		c.Git = &enabled
	}

	if v, ok := lookup(envKey("client_command")); ok {
		c.ClientCommand = strings.Fields(v)
	}

	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Type == "" {
		c.Type = TypePostgres
	}
	if c.HistoryTableName == "" {
		c.HistoryTableName = consts.DefaultHistoryTable
	}
	if c.AlterDir == "" {
		c.AlterDir = "."
	}
}

func envKey(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}
