/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Configuration for datatool. Holds parse, source, logging and export settings,
loads them through viper from defaults, an optional config file, DATATOOL_ environment
variables and bound CLI flags, and converts them into parser and source options.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kleascm/datatool/pkg/export"
	"github.com/kleascm/datatool/pkg/inference"
	"github.com/kleascm/datatool/pkg/logging"
	"github.com/kleascm/datatool/pkg/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DATATOOL_PARSE_SINGLE_TAB
const EnvPrefix = "DATATOOL"

// Config is the full tool configuration
type Config struct {
	Parse   ParseConfig          `mapstructure:"parse" json:"parse"`
	Source  SourceConfig         `mapstructure:"source" json:"source"`
	Logging logging.LoggerConfig `mapstructure:"logging" json:"logging"`
	Export  ExportConfig         `mapstructure:"export" json:"export"`
}

// ParseConfig mirrors inference.Options
type ParseConfig struct {
	SingleTab   bool     `mapstructure:"single_tab" json:"single_tab"` // keep multi-track input in one dataset
	Delimiters  []string `mapstructure:"delimiters" json:"delimiters"`
	MaxAttempts int      `mapstructure:"max_attempts" json:"max_attempts"`
	Workers     int      `mapstructure:"workers" json:"workers"` // sources parsed concurrently
}

// SourceConfig controls how sources are fetched
type SourceConfig struct {
	Timeout time.Duration     `mapstructure:"timeout" json:"timeout"`
	Headers map[string]string `mapstructure:"headers" json:"headers"`
	Render  bool              `mapstructure:"render" json:"render"`
}

// ExportConfig holds output settings
type ExportConfig struct {
	Format    string `mapstructure:"format" json:"format"`
	Delimiter string `mapstructure:"delimiter" json:"delimiter"` // for csv output
	ReportDir string `mapstructure:"report_dir" json:"report_dir"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Parse: ParseConfig{
			Delimiters:  []string{"tab", "comma", "semicolon", "space"},
			MaxAttempts: inference.DefaultMaxAttemptsWithoutData,
			Workers:     4,
		},
		Source: SourceConfig{
			Timeout: source.DefaultTimeout,
			Headers: map[string]string{},
		},
		Logging: logging.DefaultLoggerConfig(),
		Export: ExportConfig{
			Format:    string(export.FormatCSV),
			Delimiter: "comma",
		},
	}
}

// SetDefaults registers every default with v so env variables and config
// files can override individual keys
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("parse.single_tab", d.Parse.SingleTab)
	v.SetDefault("parse.delimiters", d.Parse.Delimiters)
	v.SetDefault("parse.max_attempts", d.Parse.MaxAttempts)
	v.SetDefault("parse.workers", d.Parse.Workers)
	v.SetDefault("source.timeout", d.Source.Timeout)
	v.SetDefault("source.headers", d.Source.Headers)
	v.SetDefault("source.render", d.Source.Render)
	v.SetDefault("logging.level", string(d.Logging.Level))
	v.SetDefault("logging.format", string(d.Logging.Format))
	v.SetDefault("logging.output_dir", d.Logging.OutputDir)
	v.SetDefault("logging.max_files", d.Logging.MaxFiles)
	v.SetDefault("logging.timestamp", d.Logging.Timestamp)
	v.SetDefault("logging.caller", d.Logging.Caller)
	v.SetDefault("logging.colors", d.Logging.Colors)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.delimiter", d.Export.Delimiter)
	v.SetDefault("export.report_dir", d.Export.ReportDir)
}

// Load reads the configuration from v. The file named by the "config" key is
// read first; DATATOOL_* environment variables and bound flags override it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the Config for invalid values
func (c *Config) Validate() error {
	if _, err := c.Parse.delimiters(); err != nil {
		return err
	}
	if c.Parse.MaxAttempts <= 0 {
		return fmt.Errorf("parse.max_attempts must be positive")
	}
	if c.Parse.Workers <= 0 {
		return fmt.Errorf("parse.workers must be positive")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return err
	}
	if _, err := c.Export.TextDelimiter(); err != nil {
		return err
	}
	return nil
}

func (p ParseConfig) delimiters() ([]inference.Delimiter, error) {
	if len(p.Delimiters) == 0 {
		return nil, fmt.Errorf("parse.delimiters must not be empty")
	}
	out := make([]inference.Delimiter, 0, len(p.Delimiters))
	for _, name := range p.Delimiters {
		d, err := inference.ParseDelimiter(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ParseOptions converts the parse settings into inference options
func (c *Config) ParseOptions(fs afero.Fs, logger logrus.FieldLogger) (inference.Options, error) {
	delimiters, err := c.Parse.delimiters()
	if err != nil {
		return inference.Options{}, err
	}
	return inference.Options{
		PreferSingleTabForMultiTrack: c.Parse.SingleTab,
		Delimiters:                   delimiters,
		MaxAttemptsWithoutData:       c.Parse.MaxAttempts,
		Fs:                           fs,
		Logger:                       logger,
	}, nil
}

// SourceOptions converts the source settings into a source.Config
func (c *Config) SourceOptions(fs afero.Fs, stdin io.Reader) source.Config {
	return source.Config{
		Timeout: c.Source.Timeout,
		Headers: c.Source.Headers,
		Render:  c.Source.Render,
		Fs:      fs,
		Stdin:   stdin,
	}
}

// TextDelimiter returns the delimiter used for csv output
func (e ExportConfig) TextDelimiter() (inference.Delimiter, error) {
	d, err := inference.ParseDelimiter(e.Delimiter)
	if err != nil {
		return "", err
	}
	if d == inference.Space {
		return "", fmt.Errorf("export.delimiter cannot be space")
	}
	return d, nil
}
