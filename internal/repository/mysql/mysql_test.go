package mysql

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDSN(t *testing.T) {
	opts := Options{Host: "db.internal", Port: 3307, User: "app", Password: "s3cret", Name: "bookmarks"}

	dsn := opts.DSN()

	cfg, err := driver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "s3cret", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.internal:3307", cfg.Addr)
	assert.Equal(t, "bookmarks", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.True(t, strings.Contains(dsn, "charset=utf8mb4"), "dsn %q lacks charset", dsn)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "duplicate entry", err: &driver.MySQLError{Number: 1062, Message: "Duplicate entry 'alice'"}, want: true},
		{name: "wrapped duplicate", err: fmt.Errorf("insert: %w", &driver.MySQLError{Number: 1062}), want: true},
		{name: "foreign key failure", err: &driver.MySQLError{Number: 1452}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestSchemaCascadesFromFolders(t *testing.T) {
	// deleting a folder must take its subtree with it on this backend too
	joined := strings.Join(schema, "\n")
	assert.Contains(t, joined, "FOREIGN KEY (parent_id) REFERENCES folders(id) ON DELETE CASCADE")
	assert.Contains(t, joined, "FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE CASCADE")
}

func TestSchemaSortsFolderNamesByBytes(t *testing.T) {
	// ListFolders orders by name; SQLite compares bytes, so MySQL must too
	var create, alter string
	for _, stmt := range schema {
		switch {
		case strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS folders"):
			create = stmt
		case strings.HasPrefix(stmt, "ALTER TABLE folders MODIFY name"):
			alter = stmt
		}
	}
	require.NotEmpty(t, create)
	require.NotEmpty(t, alter, "existing tables need the collation applied too")
	assert.Contains(t, create, "name       VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL")
	assert.Contains(t, alter, "COLLATE utf8mb4_bin")
}
