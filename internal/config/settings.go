package config

import "time"

// Defaults.
const (
	DefaultInventory    = "/etc/ansible/hosts"
	DefaultPollInterval = 5 * time.Second
	DefaultMaxPoll      = 20
	DefaultParallelism  = 1
)

// Settings is the merged configuration of one run.
type Settings struct {
	Inventory    string        `yaml:"inventory" toml:"inventory"`
	PollInterval time.Duration `yaml:"poll_interval" toml:"poll_interval" validate:"gte=0"`
	MaxPoll      int           `yaml:"max_poll" toml:"max_poll" validate:"gte=1"`
	Parallelism  int           `yaml:"parallelism" toml:"parallelism" validate:"gte=1,lte=64"`
	MetricsFile  string        `yaml:"metrics_file" toml:"metrics_file"`
	LogFile      string        `yaml:"log_file" toml:"log_file"`

	AWS    AWSSettings    `yaml:"aws" toml:"aws"`
	HCloud HCloudSettings `yaml:"hcloud" toml:"hcloud"`
	S3     S3Settings     `yaml:"s3" toml:"s3"`
}

// AWSSettings configures the EC2 provider.
type AWSSettings struct {
	Profile string `yaml:"profile" toml:"profile"`
	// Region is the region used for the initial session and region listing.
	Region string `yaml:"region" toml:"region"`
	// Regions, when set, replaces the region list fetched from the API.
	Regions []string `yaml:"regions" toml:"regions" validate:"dive,required"`
}

// HCloudSettings configures the Hetzner Cloud provider.
type HCloudSettings struct {
	Token    string `yaml:"token" toml:"token"`
	Endpoint string `yaml:"endpoint" toml:"endpoint" validate:"omitempty,url"`
}

// S3Settings configures object storage for s3:// inventories.
type S3Settings struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint" validate:"omitempty,url"`
	Region    string `yaml:"region" toml:"region"`
	AccessKey string `yaml:"access_key" toml:"access_key" validate:"required_with=SecretKey"`
	SecretKey string `yaml:"secret_key" toml:"secret_key" validate:"required_with=AccessKey"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Settings {
	return &Settings{
		Inventory:    DefaultInventory,
		PollInterval: DefaultPollInterval,
		MaxPoll:      DefaultMaxPoll,
		Parallelism:  DefaultParallelism,
	}
}
