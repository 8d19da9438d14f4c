package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
	Migrate  bool   `yaml:"migrate"`
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Config beneficiary-data 服务配置
type Config struct {
	HTTP struct {
		Addr          string `yaml:"addr"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"http"`

	// StoreBackend: memory | postgres | mongo
	StoreBackend string         `yaml:"store_backend"`
	Database     DatabaseConfig `yaml:"database"`
	Mongo        struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Session struct {
		// Backend: memory | redis
		Backend string        `yaml:"backend"`
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
	} `yaml:"redis"`

	Events struct {
		// Backend: none | redis | mqtt
		Backend string `yaml:"backend"`
	} `yaml:"events"`
	MQTT struct {
		Broker      string `yaml:"broker"`
		ClientID    string `yaml:"client_id"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topic_prefix"`
		QoS         int    `yaml:"qos"`
	} `yaml:"mqtt"`

	Import struct {
		MaxBytes int64 `yaml:"max_bytes"`
	} `yaml:"import"`
	Bulk struct {
		ChunkSize   int `yaml:"chunk_size"`
		Concurrency int `yaml:"concurrency"`
	} `yaml:"bulk"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.PublicBaseURL = "http://localhost:8080"
	cfg.StoreBackend = "memory"
	cfg.Database = DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		Name:    "beneficiaries",
		SSLMode: "disable",
	}
	cfg.Mongo.URI = "mongodb://localhost:27017"
	cfg.Mongo.Database = "beneficiaries"
	cfg.Session.Backend = "memory"
	cfg.Session.TTL = 12 * time.Hour
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Stream = "beneficiary-events"
	cfg.Events.Backend = "none"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "beneficiary-data"
	cfg.MQTT.TopicPrefix = "beneficiary-data"
	cfg.Import.MaxBytes = 20 << 20
	cfg.Bulk.ChunkSize = 500
	cfg.Bulk.Concurrency = 16
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.HTTP.PublicBaseURL)

	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = parseInt(getEnv("DB_PORT", ""), cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", ""), cfg.Database.MaxConns)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", ""), cfg.Database.MaxIdle)
	cfg.Database.Migrate = parseBool(getEnv("DB_MIGRATE", ""), cfg.Database.Migrate)
	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", cfg.Mongo.Database)

	cfg.Session.Backend = getEnv("SESSION_BACKEND", cfg.Session.Backend)
	cfg.Session.TTL = parseDuration(getEnv("SESSION_TTL", ""), cfg.Session.TTL)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", ""), cfg.Redis.DB)
	cfg.Redis.Stream = getEnv("REDIS_STREAM", cfg.Redis.Stream)

	cfg.Events.Backend = getEnv("EVENTS_BACKEND", cfg.Events.Backend)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", cfg.MQTT.TopicPrefix)
	cfg.MQTT.QoS = parseInt(getEnv("MQTT_QOS", ""), cfg.MQTT.QoS)

	cfg.Import.MaxBytes = int64(parseInt(getEnv("IMPORT_MAX_BYTES", ""), int(cfg.Import.MaxBytes)))
	cfg.Bulk.ChunkSize = parseInt(getEnv("BULK_CHUNK_SIZE", ""), cfg.Bulk.ChunkSize)
	cfg.Bulk.Concurrency = parseInt(getEnv("BULK_CONCURRENCY", ""), cfg.Bulk.Concurrency)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and non-positive limits.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "memory", "postgres", "mongo":
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q", c.Session.Backend)
	}
	switch c.Events.Backend {
	case "none", "redis", "mqtt":
	default:
		return fmt.Errorf("invalid EVENTS_BACKEND %q", c.Events.Backend)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid MQTT_QOS %d", c.MQTT.QoS)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Import.MaxBytes <= 0 || c.Bulk.ChunkSize <= 0 || c.Bulk.Concurrency <= 0 {
		return fmt.Errorf("IMPORT_MAX_BYTES, BULK_CHUNK_SIZE and BULK_CONCURRENCY must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
