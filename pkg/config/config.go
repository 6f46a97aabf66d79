// Package config loads questions-sqlgen settings from defaults, an optional
// YAML file, environment variables and command-line flags.
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. QSQL_BATCH_SIZE.
const EnvPrefix = "QSQL_"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// rdsKeys maps the game server's RDS_* connection variables to config keys.
var rdsKeys = map[string]string{
	"RDS_HOSTNAME": "database.host",
	"RDS_PORT":     "database.port",
	"RDS_USERNAME": "database.user",
	"RDS_PASSWORD": "database.password",
	"RDS_DATABASE": "database.name",
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Input:    DefaultInput,
		Output:   DefaultOutput,
		Table:    DefaultTable,
		Column:   DefaultColumn,
		LogLevel: DefaultLogLevel,
		Database: Database{
			Host:     DefaultDBHost,
			Port:     DefaultDBPort,
			User:     DefaultDBUser,
			Password: DefaultDBPass,
			Name:     DefaultDBName,
		},
	}
}

// Load builds the effective configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// If cfgFile is empty, questions-sqlgen.yaml in the working directory is used
// when present.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	d := Defaults()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"input":             d.Input,
		"output":            d.Output,
		"table":             d.Table,
		"column":            d.Column,
		"batch_size":        d.BatchSize,
		"log_level":         d.LogLevel,
		"database.host":     d.Database.Host,
		"database.port":     d.Database.Port,
		"database.user":     d.Database.User,
		"database.password": d.Database.Password,
		"database.name":     d.Database.Name,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// QSQL_BATCH_SIZE -> batch_size
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// RDS_HOSTNAME -> database.host; other RDS_ variables are ignored
	if err := k.Load(env.Provider("RDS_", ".", func(s string) string {
		return rdsKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load database env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// findConfigFile returns the explicit path if given, else the default file
// name when it exists in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	return ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("config error: input path is empty")
	}
	if c.Output == "" {
		return fmt.Errorf("config error: output path is empty")
	}
	if !identifierRe.MatchString(c.Table) {
		return fmt.Errorf("config error: table %q is not a valid identifier", c.Table)
	}
	if !identifierRe.MatchString(c.Column) {
		return fmt.Errorf("config error: column %q is not a valid identifier", c.Column)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("config error: batch size must not be negative, got %d", c.BatchSize)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config error: database port %d out of range", c.Database.Port)
	}
	return nil
}

// WriteYAML writes the configuration as YAML with the database password redacted.
func (c *Config) WriteYAML(w io.Writer) error {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = redactedPassword
	}

	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
