// Package storage picks the persistence backend named in the configuration.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/bookmarks/internal/config"
	"github.com/sakif/bookmarks/internal/repository"
	"github.com/sakif/bookmarks/internal/repository/mysql"
	"github.com/sakif/bookmarks/internal/repository/sqlite"
)

// Open connects to the configured backend and migrates its schema. The
// caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg config.StorageConfig) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		if cfg.File != ":memory:" {
			if dir := filepath.Dir(cfg.File); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
				}
			}
		}
		return sqlite.New(cfg.File)

	case config.BackendMySQL:
		return mysql.New(ctx, mysql.Options{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Name:     cfg.Name,
		})
	}
	return nil, fmt.Errorf("storage: unsupported backend %q", cfg.Backend)
}
