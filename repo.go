package main

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

// OpenBookStorage connects to the store designated by the connection string
// scheme and provides the matching book storage.
func OpenBookStorage(ctx context.Context, logger *zap.Logger, config *Config, ids UIDHandler) (BookStorage, error) {
	u, err := url.Parse(config.StoreURI)
	if err != nil {
		return nil, fmt.Errorf("invalid store connection string: %v", err)
	}

	switch u.Scheme {
	case "redis", "rediss":
		client, err := GetRedisClient(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis server: %w", err)
		}
		logger.Info("storage: redis backend ready", zap.String("store.addr", client.Options().Addr), zap.Int("store.db", client.Options().DB))
		return NewRedisBookStorage(logger, client, ids), nil

	case "bolt":
		boltConfig, err := ParseBoltURI(config.StoreURI)
		if err != nil {
			return nil, fmt.Errorf("invalid bolt connection string: %w", err)
		}
		client, err := GetBoltDBClient(boltConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb database: %w", err)
		}
		logger.Info("storage: boltdb backend ready", zap.String("store.file", boltConfig.FilePath), zap.String("store.bucket", boltConfig.BucketName))
		return NewBoltBookStorage(logger, boltConfig, client, ids), nil
	}

	return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
}
