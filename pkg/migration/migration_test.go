package migration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewMigratorDefaults(t *testing.T) {
	m := NewMigrator(Config{}, nil, zap.NewNop())
	assert.Equal(t, ".", m.config.MigrationsPath)
	assert.Equal(t, defaultTable, m.config.Table)
	assert.Equal(t, defaultLockTimeout, m.config.LockTimeout)

	custom := NewMigrator(Config{MigrationsPath: "sql", Table: "story_schema", LockTimeout: time.Second}, nil, zap.NewNop())
	assert.Equal(t, "sql", custom.config.MigrationsPath)
	assert.Equal(t, "story_schema", custom.config.Table)
	assert.Equal(t, time.Second, custom.config.LockTimeout)
}

func TestMigratorRequiresSource(t *testing.T) {
	m := NewMigrator(Config{}, nil, zap.NewNop())
	_, err := m.Up(context.Background())
	assert.EqualError(t, err, "migrations FS is not configured")
}
