// Package config loads the command line configuration. Values come from, in
// order of precedence, ACBRLIB_* environment variables, an optional YAML file
// and the defaults below.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

const EnvPrefix = "ACBRLIB"

type Config struct {
	Resources ResourcesConfig `mapstructure:"resources"`
	Loader    LoaderConfig    `mapstructure:"loader"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	ESocial   ESocialConfig   `mapstructure:"esocial"`
	Stress    StressConfig    `mapstructure:"stress"`
}

// ResourcesConfig locates the native libraries.
type ResourcesConfig struct {
	// Dir defaults to <executable dir>/resources when empty.
	Dir string `mapstructure:"dir"`
	// DepsDir defaults to <Dir>/deps when empty.
	DepsDir string `mapstructure:"deps_dir"`
	// Files maps component names (eSocial, Reinf, ...) to file names that
	// replace the canonical ones.
	Files map[string]string `mapstructure:"files"`
}

type LoaderConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	Encoding      string        `mapstructure:"encoding"`
	SearchPathEnv string        `mapstructure:"search_path_env"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is json or text.
	Format string `mapstructure:"format"`
	// File receives the logs instead of stderr when set.
	File string `mapstructure:"file"`
}

type ESocialConfig struct {
	ConfigPath string `mapstructure:"config_path"`
	// CryptKeyEnv names the environment variable holding the INI crypt key.
	// The key itself is never read from the file.
	CryptKeyEnv string `mapstructure:"crypt_key_env"`
	LogPath     string `mapstructure:"log_path"`
	SchemasPath string `mapstructure:"schemas_path"`
}

// CryptKey reads the crypt key from the configured environment variable.
func (c *ESocialConfig) CryptKey() string {
	if c.CryptKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.CryptKeyEnv)
}

type StressConfig struct {
	Tasks           int           `mapstructure:"tasks"`
	Concurrency     int           `mapstructure:"concurrency"`
	MaxRetries      uint64        `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	TempDir         string        `mapstructure:"temp_dir"`
	EventFile       string        `mapstructure:"event_file"`
	Group           int32         `mapstructure:"group"`
}

// New builds a viper instance with defaults and environment binding, then
// reads file if it is not empty. A missing file is an error; an empty path
// reads nothing.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if file == "" {
		return v, nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file %s not found: %w", file, err)
		}
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}
	return v, nil
}

// SetDefaults registers every key so AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("resources.dir", "")
	v.SetDefault("resources.deps_dir", "")
	v.SetDefault("resources.files", map[string]string{})

	v.SetDefault("loader.timeout", 30*time.Second)
	v.SetDefault("loader.encoding", acbrlib.UTF8.String())
	v.SetDefault("loader.search_path_env", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	v.SetDefault("esocial.config_path", "acbrlib.ini")
	v.SetDefault("esocial.crypt_key_env", "ACBRLIB_ESOCIAL_CRYPT_KEY")
	v.SetDefault("esocial.log_path", "logs")
	v.SetDefault("esocial.schemas_path", "resources/temp/schemas")

	v.SetDefault("stress.tasks", 100)
	v.SetDefault("stress.concurrency", 16)
	v.SetDefault("stress.max_retries", 50)
	v.SetDefault("stress.initial_interval", 5*time.Millisecond)
	v.SetDefault("stress.max_interval", 250*time.Millisecond)
	v.SetDefault("stress.temp_dir", "resources/temp_ini")
	v.SetDefault("stress.event_file", "evento.xml")
	v.SetDefault("stress.group", 1)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Loader.Timeout < 0 {
		errs = append(errs, fmt.Errorf("loader.timeout must not be negative"))
	}
	if _, err := acbrlib.ParseEncoding(c.Loader.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("loader.encoding: %w", err))
	}
	for name := range c.Resources.Files {
		if _, err := acbrlib.ParseLibraryID(name); err != nil {
			errs = append(errs, fmt.Errorf("resources.files: %w", err))
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}
	if c.Stress.Tasks < 0 {
		errs = append(errs, fmt.Errorf("stress.tasks must not be negative"))
	}
	if c.Stress.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("stress.concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}

// LoaderConfig converts the file form into an acbrlib.Config.
func (c *Config) LoaderConfig(log logging.Logger) (acbrlib.Config, error) {
	enc, err := acbrlib.ParseEncoding(c.Loader.Encoding)
	if err != nil {
		return acbrlib.Config{}, err
	}
	var files map[acbrlib.LibraryID]string
	if len(c.Resources.Files) > 0 {
		files = make(map[acbrlib.LibraryID]string, len(c.Resources.Files))
		for name, file := range c.Resources.Files {
			id, err := acbrlib.ParseLibraryID(name)
			if err != nil {
				return acbrlib.Config{}, err
			}
			files[id] = file
		}
	}
	return acbrlib.Config{
		ResourcesDir:  c.Resources.Dir,
		DepsDir:       c.Resources.DepsDir,
		Filenames:     files,
		SearchPathEnv: c.Loader.SearchPathEnv,
		LoadTimeout:   c.Loader.Timeout,
		Encoding:      enc,
		Logger:        log,
	}, nil
}
