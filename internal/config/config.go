// Package config loads application configuration from a YAML file and
// INSIGHT_-prefixed environment variables, in that precedence order.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jonesrussell/goinsight/internal/discovery"
	"github.com/jonesrussell/goinsight/internal/fetch"
	"github.com/jonesrussell/goinsight/internal/logger"
	"github.com/jonesrussell/goinsight/internal/scheduler"
	"github.com/jonesrussell/goinsight/internal/topics"
)

// envPrefix namespaces the environment overrides, e.g. INSIGHT_LOGGER_LEVEL.
const envPrefix = "INSIGHT"

// AppConfig identifies the deployment.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	// SourcesFile is the path of the source catalog.
	SourcesFile string `mapstructure:"sources_file"`
}

// StorageConfig locates the embedded document store.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig tunes the read-only HTTP API.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// Config is the full application configuration tree.
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Logger    logger.Config    `mapstructure:"logger"`
	Fetch     fetch.Config     `mapstructure:"fetch"`
	Discovery discovery.Config `mapstructure:"discovery"`
	Scheduler scheduler.Config `mapstructure:"scheduler"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Server    ServerConfig     `mapstructure:"server"`
	// Topics overrides the built-in taxonomy when non-empty.
	Topics []topics.Topic `mapstructure:"topics"`
}

// Load reads configuration from the given file (optional) plus environment
// overrides and applies defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default config file is fine; defaults and env carry it.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Fetch = cfg.Fetch.WithDefaults()
	cfg.Discovery = cfg.Discovery.WithDefaults()
	cfg.Scheduler = cfg.Scheduler.WithDefaults()
	return &cfg, nil
}

// setDefaults seeds every key so environment-only deployments work without
// a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "goinsight")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.sources_file", "sources.yml")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.encoding", "console")

	v.SetDefault("storage.path", "goinsight.db")
	v.SetDefault("server.address", ":8080")
}
