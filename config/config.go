package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	HTTPAddress string        `mapstructure:"http_address"`
	RPCAddress  string        `mapstructure:"rpc_address"`
	Heartbeat   time.Duration `mapstructure:"heartbeat"`
}

// StorageConfig selects the blob store that holds the persisted bundle.
// Driver is one of file, sqlite, postgres, gorm or redis.
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`
	Key      string         `mapstructure:"key"`
	File     FileConfig     `mapstructure:"file"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Namespace string `mapstructure:"namespace"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.heartbeat", 30*time.Second)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.key", "appstate.json")
	v.SetDefault("storage.file.dir", "data")
	v.SetDefault("storage.sqlite.path", "data/scorekeeper.db")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.dbname", "scorekeeper")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", ":9090")
	v.SetDefault("metrics.namespace", "scorekeeper")
	v.SetDefault("logging.development", false)
}

// LoadConfig reads config.yaml from path. A missing file is not an error;
// defaults and SCOREKEEPER_* environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("scorekeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
