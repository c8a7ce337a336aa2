package config

import (
	"errors"

	"github.com/RepairBooking/service-booking/pkg/common/config"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      config.DatabaseConfig
	JWTConfig     config.JWTConfig
	KafkaConfig   config.KafkaConfig
	RedisConfig   config.RedisConfig
	MetricsConfig config.MetricsConfig
}

// Load reads configuration from BOOKING_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}

	cfg := &ServiceConfig{
		Port:          config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:        config.GetAppEnv(v),
		DBConfig:      config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:     config.LoadJWTConfig(v),
		KafkaConfig:   config.LoadKafkaConfig(v),
		RedisConfig:   config.LoadRedisConfig(v),
		MetricsConfig: config.LoadMetricsConfig(v),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start without.
func (c *ServiceConfig) Validate() error {
	var errs []error
	if c.JWTConfig.Secret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}
	if c.DBConfig.DBName == "" {
		errs = append(errs, errors.New("database name is required"))
	}
	if len(c.KafkaConfig.Brokers) == 0 {
		errs = append(errs, errors.New("at least one Kafka broker is required"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the schema is managed by gorm auto-migration.
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}
