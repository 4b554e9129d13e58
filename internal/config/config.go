// Package config loads the application configuration.
//
// Values come, in increasing precedence, from built-in defaults, an
// optional YAML file and ERRFMT_ prefixed environment variables (a `.env`
// file is loaded into the environment first). The result is validated so
// the app fails fast on bad config.
//
// Environment keys map to config paths by dropping the prefix, lowercasing
// and turning "__" into ".":
//
//	ERRFMT_SERVER__PORT                      -> server.port
//	ERRFMT_FORMATTER__VALIDATION_STATUS_CODE -> formatter.validation_status_code
//
// The formatter language tree has case-sensitive keys, so it can only be set
// from the YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/deppfellow/errfmt/internal/formatter"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: loads `.env` into the process environment.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment variable the config reads.
	EnvPrefix = "ERRFMT_"

	// FileEnv names the variable holding the YAML config path.
	FileEnv = EnvPrefix + "CONFIG_FILE"

	serviceName = "errfmt"
)

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If it is dropped,
// defaults are injected again.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Formatter     formatter.Config     `koanf:"formatter"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds.
//
// RateLimit is the number of requests per second allowed per client IP,
// 0 disables limiting. RateLimitBurst defaults to the rate when 0.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	RateLimit          float64  `koanf:"rate_limit" validate:"min=0"`
	RateLimitBurst     int      `koanf:"rate_limit_burst" validate:"min=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Formatter:     formatter.DefaultConfig(),
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads the configuration.
//
// path is the YAML file to read; when empty, FileEnv is consulted and the
// file is skipped if that is empty too.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("could not load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()

	err = k.UnmarshalWithConf("", mainConfig, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           mainConfig,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// Slices are merged index by index on unmarshal, so the default is
	// applied afterwards.
	if len(mainConfig.Server.CORSAllowedOrigins) == 0 {
		mainConfig.Server.CORSAllowedOrigins = []string{"*"}
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = serviceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
