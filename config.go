package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFile   = "./config.yml"
	EnvPrefix    = "BOOKS"
	DefaultPort  = "3000"
	DefaultStore = "redis://localhost:6379/0"
)

// EnvFiles lists the dotenv files loaded into the environment when present.
var EnvFiles = []string{"./config.env", "./.env"}

// Config defines the structure of the configuration file. Every value can be
// overridden by an environment variable prefixed with `BOOKS_` like
// `BOOKS_SERVER_READ_TIMEOUT`. Only the server port and the store connection
// string also fall back to the unprefixed `PORT` and `STORE_URI`.
type Config struct {
	GitCommit          string        `yaml:"git_commit" split_words:"true"`
	GitTag             string        `yaml:"git_tag" split_words:"true"`
	BuildTime          string        `yaml:"build_time" split_words:"true"`
	IsProduction       bool          `yaml:"is_production" split_words:"true"`
	LogLevel           zapcore.Level `yaml:"log_level" split_words:"true"`
	LogFile            string        `yaml:"log_file" split_words:"true"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" split_words:"true"`
	StoreURI           string        `yaml:"store_uri" envconfig:"STORE_URI"`
	Server             ServerConfig  `yaml:"server"`
	Redis              RedisConfig   `yaml:"redis"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            string        `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

// RedisConfig tunes the redis client. Address, credentials and database
// index come from the store connection string.
type RedisConfig struct {
	DialTimeout  time.Duration `yaml:"dial_timeout" split_words:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout time.Duration `yaml:"write_timeout" split_words:"true"`
	PoolSize     int           `yaml:"pool_size" split_words:"true"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" split_words:"true"`
}

// LoadConfigFile provides an instance of config structure for the all application.
// A missing file is not an error and results in an empty configuration.
func LoadConfigFile(configFile string) (*Config, error) {
	cfg := &Config{}
	file, err := os.Open(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	yd := yaml.NewDecoder(file)
	if err = yd.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles sets the variables of the existing dotenv files into the process
// environment. Variables already set in the environment are not overridden.
func LoadEnvFiles(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if config.Server.Port == "" {
		config.Server.Port = DefaultPort
	}

	if p, err := strconv.Atoi(config.Server.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid server port %q", config.Server.Port)
	}

	if config.StoreURI == "" {
		config.StoreURI = DefaultStore
	}

	u, err := url.Parse(config.StoreURI)
	if err != nil {
		return fmt.Errorf("invalid store connection string: %v", err)
	}
	switch u.Scheme {
	case "redis", "rediss", "bolt":
	default:
		return fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}

	setDefaultDuration(&config.Server.ReadTimeout, 10*time.Second)
	setDefaultDuration(&config.Server.WriteTimeout, 15*time.Second)
	setDefaultDuration(&config.Server.IdleTimeout, 60*time.Second)
	setDefaultDuration(&config.Server.ShutdownTimeout, 30*time.Second)
	setDefaultDuration(&config.Redis.DialTimeout, 5*time.Second)
	setDefaultDuration(&config.Redis.ReadTimeout, 3*time.Second)
	setDefaultDuration(&config.Redis.WriteTimeout, 3*time.Second)
	setDefaultDuration(&config.Redis.PoolTimeout, 4*time.Second)
	if config.Redis.PoolSize <= 0 {
		config.Redis.PoolSize = 10
	}
	return nil
}

func setDefaultDuration(d *time.Duration, value time.Duration) {
	if *d <= 0 {
		*d = value
	}
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(ConfigFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	if err = LoadEnvFiles(EnvFiles...); err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BOOKS`.
	if err = LoadConfigEnvs(EnvPrefix, config); err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	if err = InitConfig(config, gitCommit, gitTag, buildTime); err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}

// Redacted returns a copy of the config safe to be displayed.
func (c Config) Redacted() Config {
	if u, err := url.Parse(c.StoreURI); err == nil {
		c.StoreURI = u.Redacted()
	}
	return c
}
