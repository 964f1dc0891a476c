package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Query    QueryConfig
	Orders   OrdersConfig
	Import   ImportConfig
	Timezone string
}

type ServerConfig struct {
	Port           string
	Environment    string
	Version        string
	AllowedOrigins []string
}

type MongoDBConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
	MaxRetries  int
	TLSCAFile   string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	ProducerTimeout int
	ConsumerGroup   string
	ClientID        string
	Username        string
	Password        string
	SSL             bool
	SASLMechanism   string
	Topics          KafkaTopics
}

type KafkaTopics struct {
	Changes string
}

type JWTConfig struct {
	Secret             string
	Issuer             string
	AccessTokenExpiry  int // in minutes
	RefreshTokenExpiry int // in days
}

// QueryConfig mirrors the shared query-cache defaults of the UI: one retry, a TTL and
// an optional polling interval.
type QueryConfig struct {
	Retry        int
	TTL          time.Duration
	PollInterval time.Duration
}

type OrdersConfig struct {
	GSTRate string // percentage, decimal string
}

type ImportConfig struct {
	MaxRows int
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/kumbhmela-leads")

	// Reading config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var config Config

	config.Server = ServerConfig{
		Port:           v.GetString("server.port"),
		Environment:    v.GetString("server.environment"),
		Version:        v.GetString("server.version"),
		AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
	}

	config.MongoDB = MongoDBConfig{
		URI:         v.GetString("mongodb.uri"),
		Database:    v.GetString("mongodb.database"),
		MaxPoolSize: v.GetUint64("mongodb.max_pool_size"),
		MinPoolSize: v.GetUint64("mongodb.min_pool_size"),
		MaxRetries:  v.GetInt("mongodb.max_retries"),
		TLSCAFile:   v.GetString("mongodb.tls_ca_file"),
	}

	config.Redis = RedisConfig{
		Enabled:  v.GetBool("redis.enabled"),
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}

	config.Kafka = KafkaConfig{
		Enabled:         v.GetBool("kafka.enabled"),
		Brokers:         v.GetStringSlice("kafka.brokers"),
		ProducerTimeout: v.GetInt("kafka.producer_timeout"),
		ConsumerGroup:   v.GetString("kafka.consumer_group"),
		ClientID:        v.GetString("kafka.client_id"),
		Username:        v.GetString("kafka.username"),
		Password:        v.GetString("kafka.password"),
		SSL:             v.GetBool("kafka.ssl"),
		SASLMechanism:   v.GetString("kafka.sasl_mechanism"),
		Topics: KafkaTopics{
			Changes: v.GetString("kafka.topics.changes"),
		},
	}

	config.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		Issuer:             v.GetString("jwt.issuer"),
		AccessTokenExpiry:  v.GetInt("jwt.access_token_expiry"),
		RefreshTokenExpiry: v.GetInt("jwt.refresh_token_expiry"),
	}

	config.Query = QueryConfig{
		Retry:        v.GetInt("query.retry"),
		TTL:          v.GetDuration("query.ttl"),
		PollInterval: v.GetDuration("query.poll_interval"),
	}

	config.Orders = OrdersConfig{
		GSTRate: v.GetString("orders.gst_rate"),
	}

	config.Import = ImportConfig{
		MaxRows: v.GetInt("import.max_rows"),
	}

	config.Timezone = v.GetString("timezone")

	if config.JWT.Secret == "" && config.Server.Environment == "production" {
		return nil, fmt.Errorf("jwt.secret must be set in production")
	}
	if config.Query.Retry < 0 {
		return nil, fmt.Errorf("query.retry cannot be negative")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.version", "1.0.0")
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:5173",
		"http://localhost:8080",
	})

	// MongoDB defaults
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "kumbhmela_leads")
	v.SetDefault("mongodb.max_pool_size", 100)
	v.SetDefault("mongodb.min_pool_size", 10)
	v.SetDefault("mongodb.max_retries", 5)
	v.SetDefault("mongodb.tls_ca_file", "")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.producer_timeout", 5000)
	v.SetDefault("kafka.consumer_group", "kumbhmela-leads")
	v.SetDefault("kafka.client_id", "kumbhmela-leads-api")
	v.SetDefault("kafka.username", "")
	v.SetDefault("kafka.password", "")
	v.SetDefault("kafka.ssl", false)
	v.SetDefault("kafka.sasl_mechanism", "plain")
	v.SetDefault("kafka.topics.changes", "realtime.changes")

	// JWT defaults
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "kumbhmela-leads")
	v.SetDefault("jwt.access_token_expiry", 60) // minutes
	v.SetDefault("jwt.refresh_token_expiry", 7) // days

	// Query cache defaults
	v.SetDefault("query.retry", 1)
	v.SetDefault("query.ttl", 5*time.Minute)
	v.SetDefault("query.poll_interval", time.Duration(0))

	v.SetDefault("orders.gst_rate", "18")
	v.SetDefault("import.max_rows", 5000)
	v.SetDefault("timezone", "Asia/Kolkata")
}
