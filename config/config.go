package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string `yaml:"name"`
		Port string `yaml:"port"`
	} `yaml:"app"`
	Database struct {
		Host         string `yaml:"host"`
		Port         string `yaml:"port"`
		User         string `yaml:"user"`
		Password     string `yaml:"password"`
		Name         string `yaml:"name"`
		Sslmode      string `yaml:"sslmode"`
		Timezone     string `yaml:"timezone"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"DB"`
	} `yaml:"redis"`
	Fetch struct {
		TimeoutSeconds int   `yaml:"timeout_seconds"`
		Concurrency    int   `yaml:"concurrency"`
		MaxFeedBytes   int64 `yaml:"max_feed_bytes"`
	} `yaml:"fetch"`
	Scheduler struct {
		Enabled bool   `yaml:"enabled"`
		Spec    string `yaml:"spec"`
	} `yaml:"scheduler"`
}

var AppConfig *Config

func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	AppConfig = &Config{}
	err = viper.Unmarshal(AppConfig)
	if err != nil {
		log.Fatalf("Failed to unmarshal config: %v", err)
	}

	initDB()
	initRedis()
}

// FetchTimeout bounds how long a single feed fetch may take. The per-feed
// timeout is the only cancellation mechanism during a refresh.
func (c *Config) FetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func (c *Config) FetchConcurrency() int {
	if c.Fetch.Concurrency <= 0 {
		return 8
	}
	return c.Fetch.Concurrency
}

func (c *Config) FetchMaxFeedBytes() int64 {
	if c.Fetch.MaxFeedBytes <= 0 {
		return 5 << 20
	}
	return c.Fetch.MaxFeedBytes
}
