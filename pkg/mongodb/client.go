package mongodb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
	MaxRetries  int
	TLSCAFile   string // Path to CA certificate file for TLS
}

type Client struct {
	Client *mongo.Client
	DB     *mongo.Database
	config Config
	log    *zap.Logger
}

// NewClient creates a new MongoDB client with connection pooling and retry logic
// It implements exponential backoff retry strategy: 1s, 2s, 4s, 8s, 16s (max)
func NewClient(config Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if config.MaxPoolSize == 0 {
		config.MaxPoolSize = 100
	}
	if config.MinPoolSize == 0 {
		config.MinPoolSize = 10
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 5
	}

	if config.URI == "" {
		return nil, fmt.Errorf("MongoDB URI cannot be empty")
	}
	if config.Database == "" {
		return nil, fmt.Errorf("MongoDB database name cannot be empty")
	}
	if config.MinPoolSize > config.MaxPoolSize {
		return nil, fmt.Errorf("MinPoolSize (%d) cannot be greater than MaxPoolSize (%d)", config.MinPoolSize, config.MaxPoolSize)
	}

	clientOpts := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(60 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	if config.TLSCAFile != "" {
		tlsConfig, err := loadTLSConfig(config.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS CA file: %w", err)
		}
		clientOpts.SetTLSConfig(tlsConfig)
		log.Info("mongodb TLS configured", zap.String("ca_file", config.TLSCAFile))
	}

	var client *mongo.Client
	var err error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoffDuration > 16*time.Second {
				backoffDuration = 16 * time.Second
			}
			log.Warn("mongodb connection attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", config.MaxRetries),
				zap.Duration("backoff", backoffDuration),
				zap.Error(err))
			time.Sleep(backoffDuration)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		client, err = mongo.Connect(ctx, clientOpts)
		if err != nil {
			cancel()
			continue
		}

		err = client.Ping(ctx, readpref.Primary())
		cancel()

		if err == nil {
			break
		}

		if attempt == config.MaxRetries {
			if client != nil {
				_ = client.Disconnect(context.Background())
			}
			return nil, fmt.Errorf("failed to connect to MongoDB after %d attempts: %w", config.MaxRetries, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	database := client.Database(config.Database)
	log.Info("connected to mongodb", zap.String("database", config.Database))

	return &Client{
		Client: client,
		DB:     database,
		config: config,
		log:    log,
	}, nil
}

// Ping performs a simple ping to check if the connection is alive
func (c *Client) Ping(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("MongoDB client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return c.Client.Ping(ctx, readpref.Primary())
}

// Collection returns a collection handle
func (c *Client) Collection(name string) *mongo.Collection {
	return c.DB.Collection(name)
}

// Bucket returns a GridFS bucket used as the attachment object store.
func (c *Client) Bucket(name string) (*gridfs.Bucket, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("MongoDB database is nil")
	}
	bucket, err := gridfs.NewBucket(c.DB, options.GridFSBucket().SetName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open GridFS bucket %s: %w", name, err)
	}
	return bucket, nil
}

// Disconnect closes the underlying connection pool.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Disconnect(ctx)
}

// loadTLSConfig loads a TLS configuration with a custom CA certificate
func loadTLSConfig(caFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate from %s", caFile)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
