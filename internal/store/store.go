// Package store implements task.Store on MongoDB, MySQL and Redis.
package store

import (
	"context"
	"fmt"
	"io"
	"log"

	"tasklists/internal/config"
	"tasklists/internal/task"
)

// ErrNotFound is task.ErrNotFound, re-exported for callers that only
// deal with the store.
var ErrNotFound = task.ErrNotFound

// Backend is a task.Store with a connection lifecycle.
type Backend interface {
	task.Store
	io.Closer
	Ping(ctx context.Context) error
}

// Open connects the backend selected by cfg.Driver and checks it is
// reachable. The caller owns the returned Backend and must Close it.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var (
		b   Backend
		err error
	)
	switch cfg.Driver {
	case config.DriverMongo:
		b, err = OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.DriverMySQL:
		b, err = OpenMySQL(ctx, cfg.MySQLDSN)
	case config.DriverRedis:
		b, err = OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Namespace)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	log.Printf("[Store] Connected to %s", cfg.Driver)
	return b, nil
}
