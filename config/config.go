package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config holds everything fixed at startup. PoolSize never changes for the
// life of the pool.
type Config struct {
	DataFile string `toml:"data_file"`
	WALFile  string `toml:"wal_file"`
	PoolSize int    `toml:"pool_size"`
	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		DataFile: "hifadhi.db",
		WALFile:  "",
		PoolSize: 64,
		LogLevel: "info",
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config file")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.PoolSize <= 0 {
		return errors.Errorf("pool_size must be positive, got %d", c.PoolSize)
	}
	if c.DataFile == "" {
		return errors.New("data_file must be set")
	}
	return nil
}
