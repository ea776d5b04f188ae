package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"

	"github.com/creasty/defaults"
)

// Version is filled at compile time with the git version of packet-analyzer
var Version = "v0.0.0+dev"

type (
	//Config holds the configuration for the running system
	Config struct {
		R RunningCfg
		S StaticCfg
	}
)

// LoadConfig retrieves a configuration in order of precedence: an explicit
// path, the user's config, the system config and finally the built-in
// defaults. An explicit path that can not be read is an error.
func LoadConfig(cfgPath string) (*Config, error) {
	if cfgPath != "" {
		return loadSystemConfig(cfgPath)
	}

	var candidates []string
	// Get the user's homedir
	if usr, err := user.Current(); err == nil {
		candidates = append(candidates, filepath.Join(usr.HomeDir, ".packet-analyzer", "config.yaml"))
	}
	candidates = append(candidates, "/etc/packet-analyzer/config.yaml")

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return loadSystemConfig(candidate)
		}
	}

	return LoadDefaultConfig()
}

// LoadDefaultConfig builds a configuration purely from the built-in defaults
func LoadDefaultConfig() (*Config, error) {
	config := &Config{}
	if err := defaults.Set(&config.S); err != nil {
		return nil, err
	}
	config.S.Version = Version
	if err := initRunningConfig(&config.S, &config.R); err != nil {
		return nil, err
	}
	return config, nil
}

// loadSystemConfig attempts to parse a config file
func loadSystemConfig(cfgPath string) (*Config, error) {
	config := &Config{}

	if err := defaults.Set(&config.S); err != nil {
		return nil, err
	}

	cfgFile, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
	}

	if err := parseStaticConfig(cfgFile, &config.S); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cfgPath, err)
	}
	config.S.Version = Version

	if err := initRunningConfig(&config.S, &config.R); err != nil {
		return nil, err
	}

	return config, nil
}

// Prepare validates the static config and returns a copy whose running
// config has been rebuilt from it. Callers may freely edit S between runs.
func (c *Config) Prepare() (*Config, error) {
	if err := c.S.Validate(); err != nil {
		return nil, err
	}
	prepared := &Config{S: c.S}
	if err := initRunningConfig(&prepared.S, &prepared.R); err != nil {
		return nil, err
	}
	return prepared, nil
}

// expandConfig expands environment variables in config strings
func expandConfig(reflected reflect.Value) {
	for i := 0; i < reflected.NumField(); i++ {
		f := reflected.Field(i)
		// process sub configs
		if f.Kind() == reflect.Struct {
			expandConfig(f)
		} else if f.Kind() == reflect.String {
			f.SetString(os.ExpandEnv(f.String()))
		} else if f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String {
			strs := f.Interface().([]string)
			for i, str := range strs {
				strs[i] = os.ExpandEnv(str)
			}
			f.Set(reflect.ValueOf(strs))
		}
	}
}
