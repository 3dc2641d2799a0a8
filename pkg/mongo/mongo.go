// Package mongo connects to MongoDB for deployments that keep accounts in
// the document store the original Kavach backend used, with retry at startup
// and a health check probe.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Config struct {
	ConnectionURL   string        `env:"MONGO_URL" envDefault:"mongodb://localhost:27017"` // ConnectionURL of the mongod or replica set.
	Database        string        `env:"MONGO_DB" envDefault:"kavach"`                     // Database name.
	ConnectTimeout  time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`           // ConnectTimeout per dial attempt.
	MaxPoolSize     uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"100"`             // MaxPoolSize caps concurrent connections.
	MinPoolSize     uint64        `env:"MONGO_MIN_POOL_SIZE" envDefault:"0"`               // MinPoolSize kept warm.
	MaxConnIdleTime time.Duration `env:"MONGO_MAX_CONN_IDLE_TIME" envDefault:"5m"`         // MaxConnIdleTime before an idle connection closes.
	RetryAttempts   int           `env:"MONGO_RETRY_ATTEMPTS" envDefault:"3"`              // RetryAttempts when connecting at startup.
	RetryInterval   time.Duration `env:"MONGO_RETRY_INTERVAL" envDefault:"5s"`             // RetryInterval between attempts.
}

var (
	ErrFailedToConnect   = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
)

// Connect dials MongoDB with retries and verifies the connection with a ping.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	for range cfg.RetryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		time.Sleep(cfg.RetryInterval)
	}

	return nil, ErrFailedToConnect
}

// ConnectDatabase dials MongoDB and returns a handle to the configured database.
func ConnectDatabase(ctx context.Context, cfg Config) (*mongo.Database, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.Database(cfg.Database), nil
}

// Healthcheck returns a probe function compatible with
// httpserver.HealthCheckHandler.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
