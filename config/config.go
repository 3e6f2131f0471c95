package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
// It includes the environment type, database configuration, telegram
// bot settings and the optional redis cache settings.
type Config struct {
	Env      string         `yaml:"env"`      // Env is the current environment: local, dev, prod.
	Database PostgresConfig `yaml:"postgres"` // Database holds the postgres database configuration
	Telegram TelegramConfig `yaml:"telegram"` // Telegram holds the bot transport configuration
	Redis    RedisConfig    `yaml:"redis"`    // Redis holds the cache backend configuration
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// TelegramConfig holds the settings for the Telegram bot transport.
type TelegramConfig struct {
	Token         string        `yaml:"token"`   // Token is an unique telegram bot token
	PollerTimeout time.Duration `yaml:"timeout"` // PollerTimeout is the long poller timeout
}

// RedisConfig holds the settings for the look-aside cache. An empty Addr
// disables caching entirely; every operation then goes straight to the
// authoritative store.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`         // Addr is the redis server address.
	EmployeeTTL time.Duration `yaml:"employee_ttl"` // EmployeeTTL is the expiry for cached employee records.
	TemplateTTL time.Duration `yaml:"template_ttl"` // TemplateTTL is the expiry for cached timesheet templates.
}

// MustLoad loads the configuration from a YAML file and returns a Config struct.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("config path is empty")
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		panic("config error: " + err.Error())
	}

	defPollerTimeout := 10

	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("telegram.timeout", time.Duration(defPollerTimeout*int(time.Second)))
	viper.SetDefault("redis.employee_ttl", time.Hour)
	viper.SetDefault("redis.template_ttl", 24*time.Hour)

	return &Config{
		Env: viper.GetString("env"),
		Telegram: TelegramConfig{
			Token:         viper.GetString("telegram.token"),
			PollerTimeout: viper.GetDuration("telegram.timeout"),
		},
		Database: PostgresConfig{
			Host:     viper.GetString("postgres.host"),
			Port:     viper.GetString("postgres.port"),
			User:     viper.GetString("postgres.user"),
			Password: viper.GetString("postgres.password"),
			Name:     viper.GetString("postgres.db_name"),
		},
		Redis: RedisConfig{
			Addr:        viper.GetString("redis.addr"),
			EmployeeTTL: viper.GetDuration("redis.employee_ttl"),
			TemplateTTL: viper.GetDuration("redis.template_ttl"),
		},
	}
}
