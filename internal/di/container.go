package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"melodiapp-web/internal/session"
	"melodiapp-web/internal/session/adapter/persistence/memory"
	sessionmongo "melodiapp-web/internal/session/adapter/persistence/mongodb"
	sessionredis "melodiapp-web/internal/session/adapter/persistence/redis"
	"melodiapp-web/internal/session/config"
	"melodiapp-web/internal/session/domain/repository"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container owns the process wide dependencies and their lifecycle.
type Container struct {
	mu sync.RWMutex
	// Module instances
	SessionModule *session.SessionModule
	// Storage connections; at most one is set
	RedisClient *redis.Client
	MongoClient *mongo.Client
	Storage     repository.TabStorage
	// Shared components
	EventBus *eventbus.EventBus
	Config   *config.Config
	Logger   logger.Logger
}

// NewContainer creates an empty container logging through log.
func NewContainer(log logger.Logger) *Container {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Container{Logger: log}
}

// InitializeSession connects the configured tab storage and builds the
// session module on top of it.
func (c *Container) InitializeSession(ctx context.Context, cfg *config.Config, opts ...session.Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SessionModule != nil {
		return errors.New("session module already initialized")
	}
	c.Config = cfg

	storage, err := c.newStorageLocked(ctx, cfg)
	if err != nil {
		return err
	}
	c.Storage = storage

	if c.EventBus == nil {
		c.EventBus = eventbus.NewEventBus(c.Logger.WithComponent("eventbus"))
	}

	module, err := session.NewSessionModule(cfg, storage, c.EventBus, c.Logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create session module: %w", err)
	}
	c.SessionModule = module
	return nil
}

func (c *Container) newStorageLocked(ctx context.Context, cfg *config.Config) (repository.TabStorage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		return memory.NewStorage(cfg.TabTTL), nil

	case config.StorageDriverRedis:
		client := sessionredis.NewClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.GetAddr(), err)
		}
		c.RedisClient = client
		return sessionredis.NewStorage(client, cfg.Redis.KeyPrefix, cfg.TabTTL, c.Logger), nil

	case config.StorageDriverMongoDB:
		client, err := sessionmongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		c.MongoClient = client
		storage, err := sessionmongo.NewStorage(ctx, client.Database(cfg.Mongo.DatabaseName),
			cfg.Mongo.Collection, cfg.TabTTL, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB tab storage: %w", err)
		}
		return storage, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// GetSessionModule returns the session module instance
func (c *Container) GetSessionModule() *session.SessionModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SessionModule
}

// HealthCheck performs health check on all registered services
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.SessionModule == nil {
		return errors.New("session module not initialized")
	}
	if err := c.SessionModule.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s tab storage health check failed: %w", c.Config.StorageDriver, err)
	}
	return nil
}

// Close stops the modules and closes the storage connections.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if c.SessionModule != nil {
		if err := c.SessionModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop session module: %w", err))
		}
		c.SessionModule = nil
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis client: %w", err))
		}
		c.RedisClient = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongodb: %w", err))
		}
		c.MongoClient = nil
	}
	c.Storage = nil

	return errors.Join(errs...)
}
