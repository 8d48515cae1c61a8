// Package mysql is the networked storage backend, selected with
// DB_CLIENT=mysql. It shares its queries with the SQLite backend through
// sqldb and only owns the DSN, pool settings and MySQL schema.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/sakif/bookmarks/internal/repository/sqldb"
)

// erDupEntry is MySQL's "Duplicate entry for key" error number.
const erDupEntry = 1062

// Options describes how to reach the server.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// DSN renders opts in go-sql-driver form. parseTime makes DATETIME columns
// scan into time.Time, and loc=UTC keeps them in the zone they were written in.
func (o Options) DSN() string {
	cfg := driver.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", o.Host, o.Port)
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// DB is a MySQL-backed repository.Store.
type DB struct {
	*sqldb.Store
	conn *sql.DB
}

// New connects, verifies the connection and migrates the schema.
func New(ctx context.Context, opts Options) (*DB, error) {
	conn, err := sql.Open("mysql", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("mysql: opening database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: pinging %s: %w", opts.Host, err)
	}

	db := &DB{
		Store: sqldb.New(conn, sqldb.Dialect{
			Name:              "mysql",
			IsUniqueViolation: isUniqueViolation,
		}),
		conn: conn,
	}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: running migrations: %w", err)
	}
	return db, nil
}

// schema is applied one statement at a time: the driver rejects
// multi-statement Exec unless multiStatements=true is set on the DSN.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(64) NOT NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		created_at    DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS folders (
		id         BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		parent_id  BIGINT NULL,
		user_id    BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_folders_user_id (user_id),
		KEY idx_folders_parent_id (parent_id),
		CONSTRAINT fk_folders_parent FOREIGN KEY (parent_id) REFERENCES folders(id) ON DELETE CASCADE,
		CONSTRAINT fk_folders_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookmarks (
		id         BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title      VARCHAR(500) NOT NULL,
		url        TEXT NOT NULL,
		folder_id  BIGINT NULL,
		user_id    BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_bookmarks_user_id (user_id),
		KEY idx_bookmarks_folder_id (folder_id),
		CONSTRAINT fk_bookmarks_folder FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE CASCADE,
		CONSTRAINT fk_bookmarks_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// Folder names sort by bytes, as on SQLite. Repeated for tables created
	// before the collation was pinned; a no-op once applied.
	`ALTER TABLE folders MODIFY name VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	added, err := db.addColumnIfNotExists(ctx, "users", "github_id", "BIGINT NULL")
	if err != nil {
		return fmt.Errorf("adding github_id to users: %w", err)
	}
	if added {
		if _, err := db.conn.ExecContext(ctx,
			`ALTER TABLE users ADD UNIQUE KEY uq_users_github_id (github_id)`,
		); err != nil {
			return fmt.Errorf("creating users github_id key: %w", err)
		}
	}
	return nil
}

func (db *DB) addColumnIfNotExists(ctx context.Context, table, column, definition string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return false, nil
	}
	_, err = db.conn.ExecContext(ctx, fmt.Sprintf(
		"ALTER TABLE `%s` ADD COLUMN `%s` %s", table, column, definition,
	))
	return err == nil, err
}

func isUniqueViolation(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}
