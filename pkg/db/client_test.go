package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/proteinapura/storefront/pkg/config"
	"github.com/proteinapura/storefront/pkg/logger"
)

func newTestDB(t *testing.T, ql gormlogger.Interface) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 ql,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func TestPingAndClose(t *testing.T) {
	client := &Client{conn: newTestDB(t, gormlogger.Discard)}
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	assert.Error(t, err)
}

func TestQueryLoggerReportsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	conn := newTestDB(t, NewQueryLogger(logg, 0))

	err := conn.Exec("SELECT * FROM productos_missing").Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "db.query_failed")
	assert.Contains(t, buf.String(), "productos_missing")
}

func TestQueryLoggerSkipsMissingRows(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	ql := NewQueryLogger(logg, 0)

	ql.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	ql.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("conn reset"))
	assert.Contains(t, buf.String(), "conn reset")
}

func TestQueryLoggerSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	ql := NewQueryLogger(logg, time.Millisecond)

	ql.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT * FROM productos", 3 }, nil)
	assert.Contains(t, buf.String(), "db.slow_query")
	assert.Contains(t, buf.String(), `"rows":3`)

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 0 }, nil)
	assert.Empty(t, buf.String())
}
