package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fourply/fourply/negamax"
)

const (
	ConfigDebug        = "debug"
	ConfigTableSize    = "table-size"
	ConfigWeak         = "weak"
	ConfigDisableTT    = "disable-tt"
	ConfigBenchThreads = "bench-threads"
	ConfigCPUProfile   = "cpu-profile"
	ConfigMemProfile   = "mem-profile"
	ConfigHistoryFile  = "history-file"
	ConfigBookFile     = "book-file"
	ConfigFile         = "config"
)

// Config is a viper instance with the fourply keys registered. Values come,
// in decreasing priority, from flags, FOURPLY_* environment variables, a
// YAML config file and the defaults below.
type Config struct {
	*viper.Viper
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	c := &Config{viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigTableSize, uint64(negamax.DefaultTableSize))
	c.SetDefault(ConfigWeak, false)
	c.SetDefault(ConfigDisableTT, false)
	c.SetDefault(ConfigBenchThreads, 1)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
	c.SetDefault(ConfigHistoryFile, filepath.Join(os.TempDir(), "fourply_history"))
	c.SetDefault(ConfigBookFile, "")
}

// Load parses command line args and reads the environment and an optional
// config file on top of the defaults.
func (c *Config) Load(args []string) error {
	if c.Viper == nil {
		c.Viper = viper.New()
	}
	c.setDefaults()

	fs := pflag.NewFlagSet("fourply", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "log at debug level")
	fs.Uint64(ConfigTableSize, negamax.DefaultTableSize, "transposition table slots (odd, at least 131073)")
	fs.Bool(ConfigWeak, false, "only find win/draw/loss, not the distance")
	fs.Bool(ConfigDisableTT, false, "search without the transposition table")
	fs.Int(ConfigBenchThreads, 1, "solvers running at once in bench")
	fs.String(ConfigCPUProfile, "", "write a cpu profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file")
	fs.String(ConfigHistoryFile, "", "readline history file")
	fs.String(ConfigBookFile, "", "SQLite file of solved positions to read and extend")
	fs.String(ConfigFile, "", "YAML config file (default $HOME/.fourply/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// only flags that were actually given override the lower layers.
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == ConfigFile {
			return
		}
		if err := c.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	c.SetEnvPrefix("FOURPLY")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	cfgFile, _ := fs.GetString(ConfigFile)
	if cfgFile != "" {
		c.SetConfigFile(cfgFile)
	} else {
		c.SetConfigName("config")
		c.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			c.AddConfigPath(filepath.Join(home, ".fourply"))
		}
	}
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return c.Validate()
}

// Validate checks values that would otherwise fail deep inside the solver.
func (c *Config) Validate() error {
	if n := c.GetInt(ConfigBenchThreads); n < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", ConfigBenchThreads, n)
	}
	size := c.GetUint64(ConfigTableSize)
	if size < negamax.MinTableSize || size%2 == 0 {
		return fmt.Errorf("%s %d: %w", ConfigTableSize, size, negamax.ErrBadTableSize)
	}
	return nil
}

// SanitizedSettings returns every setting for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
