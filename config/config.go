package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"RStarDB/types"
)

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	Dir        string `yaml:"dir"`
	DataFile   string `yaml:"data_file"`  // relative to Dir
	IndexFile  string `yaml:"index_file"` // relative to Dir
	BlockSize  int    `yaml:"block_size"`
	SyncWrites bool   `yaml:"sync_writes"` // fsync after every block write
}

type IndexConfig struct {
	Dimensions int `yaml:"dimensions"`  // 0 = take from the data file
	MaxEntries int `yaml:"max_entries"` // 0 = calibrate from block size
}

type CacheConfig struct {
	CapacityBlocks int `yaml:"capacity_blocks"` // 0 disables the block cache
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Dir:       "rstar_data",
			DataFile:  "records.dat",
			IndexFile: "rstar.idx",
			BlockSize: types.DefaultBlockSize,
		},
		Cache: CacheConfig{
			CapacityBlocks: 256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configPath over the defaults. With an empty path the usual
// locations are searched and a missing file just means defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/rstar.yaml", "rstar.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, fmt.Errorf("config %s: %w", p, err)
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", configPath, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "rstar_data"
	}
	if cfg.Storage.DataFile == "" {
		cfg.Storage.DataFile = "records.dat"
	}
	if cfg.Storage.IndexFile == "" {
		cfg.Storage.IndexFile = "rstar.idx"
	}
	if cfg.Storage.BlockSize <= 0 {
		cfg.Storage.BlockSize = types.DefaultBlockSize
	}
	if cfg.Cache.CapacityBlocks < 0 {
		cfg.Cache.CapacityBlocks = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Storage.BlockSize < types.MinBlockSize {
		return fmt.Errorf("storage.block_size %d below minimum %d: %w", c.Storage.BlockSize, types.MinBlockSize, types.ErrInvalidConfig)
	}
	if c.Index.Dimensions < 0 {
		return fmt.Errorf("index.dimensions must be 0 or positive, got %d: %w", c.Index.Dimensions, types.ErrInvalidConfig)
	}
	if c.Index.MaxEntries != 0 && c.Index.MaxEntries < 4 {
		return fmt.Errorf("index.max_entries must be 0 or at least 4, got %d: %w", c.Index.MaxEntries, types.ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: %w", c.Log.Format, types.ErrInvalidConfig)
	}
	return nil
}

func (c *Config) DataPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.DataFile)
}

func (c *Config) IndexPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.IndexFile)
}
