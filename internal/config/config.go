package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Default admin credential digests (SHA-256, hex). Overridable per
// deployment via the admin section.
const (
	DefaultAccountHash  = "3f0395803f7ea56f6a4fb83e760e3a271ba228c87293aa36fc65f1020074ac98"
	DefaultPasswordHash = "6ecf763ff6e7cef7b47e6611e1bf76fe2608a2e32a97b2d88b083ae1d8d02c82"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Session struct {
		Path string `yaml:"path"`
	} `yaml:"session"`

	Admin struct {
		AccountHash  string `yaml:"account_hash"`
		PasswordHash string `yaml:"password_hash"`
	} `yaml:"admin"`

	Booking struct {
		MaxActivePerGroup int `yaml:"max_active_per_group"`
	} `yaml:"booking"`

	Backup BackupConfig `yaml:"backup"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePath   string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads the YAML config at path, expanding ${ENV_VAR} placeholders.
// An empty path falls back to configs/config.yaml; a missing default file
// just yields the built-in defaults, so the tool runs with zero setup.
func Load(path string) (*Config, error) {
	var cfg Config
	explicit := path != ""
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			cfg.applyDefaults()
			return &cfg, nil
		}
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/festbook.db"
	}
	if c.Session.Path == "" {
		c.Session.Path = "data/session.json"
	}
	if c.Admin.AccountHash == "" {
		c.Admin.AccountHash = DefaultAccountHash
	}
	if c.Admin.PasswordHash == "" {
		c.Admin.PasswordHash = DefaultPasswordHash
	}
	if c.Booking.MaxActivePerGroup <= 0 {
		c.Booking.MaxActivePerGroup = 2
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "data/backups"
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}
