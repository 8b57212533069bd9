package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Admin      AdminSeedConfig  `mapstructure:"admin"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // empty disables the sync lock
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type ProviderConfig struct {
	BaseURL   string        `mapstructure:"baseURL"`
	PageSize  int           `mapstructure:"pageSize"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"userAgent"`
}

type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"` // 0 disables the scheduler
	LockTTL  time.Duration `mapstructure:"lockTTL"`
}

type SettlementConfig struct {
	Policy string `mapstructure:"policy"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"` // "a:9092,b:9092"
	Topic   string `mapstructure:"topic"`
}

type AdminSeedConfig struct {
	DefaultUsername string `mapstructure:"defaultUsername"`
	DefaultPassword string `mapstructure:"defaultPassword"`
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("jwt.expire", 24)
	v.SetDefault("provider.baseURL", "https://api.jolpi.ca/ergast/f1")
	v.SetDefault("provider.pageSize", 100)
	v.SetDefault("provider.timeout", 15*time.Second)
	v.SetDefault("provider.userAgent", "f1-penca/1.0")
	v.SetDefault("sync.interval", 10*time.Minute)
	v.SetDefault("sync.lockTTL", 2*time.Minute)
	v.SetDefault("settlement.policy", "winner")
	v.SetDefault("kafka.topic", "penca_events")
}

func LoadConfig(path string) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PENCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}

// Default returns the configuration produced by the registered defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode defaults, %v", err)
	}
	return &cfg
}
