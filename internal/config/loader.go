package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "OPENSCRIBE"

// Load reads configuration from the given file (optional), the
// environment (OPENSCRIBE_*), and built-in defaults, then normalizes
// the result. A missing default config file is fine; an explicitly
// given path that cannot be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("openscribe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/openscribe")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.submit_rate_per_second", 5.0)
	v.SetDefault("server.submit_burst", 10)

	v.SetDefault("logging.level", "info")

	v.SetDefault("transcriber.executable_path", "")
	v.SetDefault("transcriber.model", "medium")
	v.SetDefault("transcriber.language", "")
	v.SetDefault("transcriber.additional_arguments", "")
	v.SetDefault("transcriber.output_formats", DefaultOutputFormats)

	v.SetDefault("jobs.uploads_root", "./uploads")
	v.SetDefault("jobs.max_concurrent", 1)
	v.SetDefault("jobs.completed_job_retention", "10m")
	v.SetDefault("jobs.orphaned_max_age", "30m")
}
