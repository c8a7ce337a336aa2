package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds the token verification settings shared with the auth service.
type JWTConfig struct {
	Secret string
	Issuer string
}

// KafkaConfig holds broker addresses and consumer group naming.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds the token blacklist store settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load returns a viper instance reading <PREFIX>_* environment variables with defaults applied.
// A config file named config.{yaml,toml,json} in the working directory is merged when present.
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("service_port", "8080")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", "5m")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "")

	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_group_prefix", "")

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_enabled", true)

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_path", "/metrics")
}

// GetAppEnv returns the deployment environment name.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("app_env")
}

// GetServicePort returns the listen address in ":port" form.
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(strings.ToLower(key))
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// LoadDatabaseConfig reads the database section; dbNameKey names the variable holding the database name.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	return DatabaseConfig{
		Host:            v.GetString("db_host"),
		Port:            v.GetInt("db_port"),
		User:            v.GetString("db_user"),
		Password:        v.GetString("db_password"),
		DBName:          v.GetString(strings.ToLower(dbNameKey)),
		SSLMode:         v.GetString("db_sslmode"),
		MaxOpenConns:    v.GetInt("db_max_open_conns"),
		MaxIdleConns:    v.GetInt("db_max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
	}
}

// LoadJWTConfig reads the JWT section.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret: v.GetString("jwt_secret"),
		Issuer: v.GetString("jwt_issuer"),
	}
}

// LoadKafkaConfig reads the Kafka section. Brokers are comma separated.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(v.GetString("kafka_brokers"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers:     brokers,
		GroupPrefix: v.GetString("kafka_group_prefix"),
	}
}

// LoadRedisConfig reads the Redis section.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Addr:     v.GetString("redis_addr"),
		Password: v.GetString("redis_password"),
		DB:       v.GetInt("redis_db"),
		Enabled:  v.GetBool("redis_enabled"),
	}
}

// LoadMetricsConfig reads the metrics section.
func LoadMetricsConfig(v *viper.Viper) MetricsConfig {
	return MetricsConfig{
		Enabled: v.GetBool("metrics_enabled"),
		Path:    v.GetString("metrics_path"),
	}
}
