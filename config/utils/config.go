// Package config provides utilities to load environment variables & set config structs, it includes app, logger, db, redis cache, message queue, metrics and simulation defaults.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// AppConfig contains environment variables for the application, database, cache, message queue, metrics and simulation
type (
	AppConfig struct {
		App        *App        `mapstructure:"app"`
		Redis      *Redis      `mapstructure:"redis"`
		Logger     *Logger     `mapstructure:"logger"`
		DB         *DB         `mapstructure:"db"`
		MQ         *MQ         `mapstructure:"mq"`
		Metrics    *Metrics    `mapstructure:"metrics"`
		Simulation *Simulation `mapstructure:"simulation"`
	}

	// App contains all the environment variables for the application
	App struct {
		Name  string `mapstructure:"name"`
		Env   string `mapstructure:"env"`
		Owner string `mapstructure:"owner"`
	}

	// Redis contains all the environment variables for the cache service
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		TTL      time.Duration `mapstructure:"ttl"`
	}

	// DB contains all the environment variables for the database
	DB struct {
		Connection string `mapstructure:"connection"`
		Host       string `mapstructure:"host"`
		Port       string `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		MaxConns   int32  `mapstructure:"maxConns"`
	}

	// MQ contains all the environment variables for the RabbitMQ broker
	MQ struct {
		User              string `mapstructure:"user"`
		Password          string `mapstructure:"password"`
		Host              string `mapstructure:"host"`
		Port              string `mapstructure:"port"`
		VHost             string `mapstructure:"vhost"`
		RequestQueue      string `mapstructure:"requestQueue"`
		DecisionsExchange string `mapstructure:"decisionsExchange"`
	}

	// Metrics contains the prometheus exporter settings
	Metrics struct {
		Addr string `mapstructure:"addr"`
		Path string `mapstructure:"path"`
	}

	// Simulation contains the defaults applied to workloads that leave them out
	Simulation struct {
		Policy  string `mapstructure:"policy"`
		Cores   int    `mapstructure:"cores"`
		Quantum int    `mapstructure:"quantum"`
	}

	// Logger contains all the environment variables for the logger
	Logger struct {
		Level             string                `mapstructure:"level"`
		Development       bool                  `mapstructure:"development"`
		DisableStacktrace bool                  `mapstructure:"disableStacktrace"`
		Encoding          string                `mapstructure:"encoding"`
		EncoderConfig     zapcore.EncoderConfig `mapstructure:"encoderConfig"`
	}
)

// URL builds the postgres connection url
func (db *DB) URL() string {
	return fmt.Sprintf("%s://%s:%s@%s:%s/%s?sslmode=disable",
		db.Connection,
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
	)
}

// URL builds the amqp connection url
func (mq *MQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", mq.User, mq.Password, mq.Host, mq.Port, strings.TrimPrefix(mq.VHost, "/"))
}

// addZapEncoderConfig fills encoder config with zapcore types
func addZapEncoderConfig(cfg *zapcore.EncoderConfig) {
	if cfg.MessageKey == "" {
		cfg.MessageKey = "msg"
		cfg.LevelKey = "level"
		cfg.TimeKey = "ts"
		cfg.NameKey = "logger"
		cfg.CallerKey = "caller"
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.EncodeName = func(s string, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString("[" + s + "]")
	}
}

// setDefaults registers the values used when neither the file nor the environment sets a key
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "coresched")
	v.SetDefault("app.env", "development")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("db.connection", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.name", "coresched")
	v.SetDefault("db.maxConns", 4)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("mq.user", "guest")
	v.SetDefault("mq.password", "guest")
	v.SetDefault("mq.host", "localhost")
	v.SetDefault("mq.port", "5672")
	v.SetDefault("mq.requestQueue", "simulations.requests")
	v.SetDefault("mq.decisionsExchange", "simulations.decisions")

	v.SetDefault("metrics.addr", ":9100")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("simulation.policy", "FCFS")
	v.SetDefault("simulation.cores", 1)
	v.SetDefault("simulation.quantum", 1)
}

// Load reads config.yaml from the given paths into v and decodes it.
// A missing config file is not an error: defaults and the environment still apply.
func Load(v *viper.Viper, paths ...string) (*AppConfig, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Bind the app.name key to the APP_NAME environment variable
	if err := v.BindEnv("app.name", "APP_NAME"); err != nil {
		return nil, fmt.Errorf("error binding APP_NAME env variable: %w", err)
	}

	// Bind DB variables
	v.BindEnv("db.host", "PG_HOST")
	v.BindEnv("db.port", "PG_PORT")
	v.BindEnv("db.user", "PG_USER")
	v.BindEnv("db.password", "PG_PASS")
	v.BindEnv("db.name", "PG_DB")

	// Bind Redis variables
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Bind RabbitMQ variables
	v.BindEnv("mq.user", "MQ_USER")
	v.BindEnv("mq.password", "MQ_PASS")
	v.BindEnv("mq.host", "MQ_HOST")
	v.BindEnv("mq.port", "MQ_PORT")

	var config *AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	addZapEncoderConfig(&config.Logger.EncoderConfig)

	return config, nil
}

// New creates a new AppConfig instance from the global viper, exiting on failure
func New() *AppConfig {
	config, err := Load(viper.GetViper(), ".", "/etc/secrets/")
	if err != nil {
		log.Fatalf("%v", err)
	}
	return config
}
