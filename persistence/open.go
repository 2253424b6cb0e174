// persistence/open.go
package persistence

import (
	"fmt"

	"github.com/wfunc/scorekeeper/config"
)

// Open builds the blob store selected by cfg.Driver.
func Open(cfg config.StorageConfig) (BlobStore, error) {
	var (
		store BlobStore
		err   error
	)
	switch cfg.Driver {
	case "", "file":
		var s *FileStore
		s, err = NewFileStore(cfg.File.Dir)
		store = s
	case "sqlite":
		var s *SQLiteStore
		s, err = OpenSQLite(cfg.SQLite.Path)
		store = s
	case "postgres":
		pg := cfg.Postgres
		var s *PostgreSQL
		s, err = NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		store = s
	case "gorm":
		pg := cfg.Postgres
		var s *GormPostgreSQL
		s, err = NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		store = s
	case "redis":
		var s *RedisStore
		s, err = NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		store = s
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return store, nil
}
