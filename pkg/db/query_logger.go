package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/proteinapura/storefront/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// QueryLogger reports failed and slow gorm queries through the service logger. Missing rows
// are an expected outcome of catalog lookups and are not reported.
type QueryLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

// NewQueryLogger returns a gorm logger writing to logg. A non-positive slow threshold turns
// slow query reports off.
func NewQueryLogger(logg *logger.Logger, slowThreshold time.Duration) *QueryLogger {
	if logg == nil {
		logg = logger.Nop()
	}
	return &QueryLogger{logg: logg, slowThreshold: slowThreshold, level: gormlogger.Warn}
}

func (q *QueryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *q
	cp.level = level
	return &cp
}

func (q *QueryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *QueryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *QueryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, "gorm", fmt.Errorf(msg, args...))
	}
}

func (q *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= gormlogger.Error:
		sql, rows := fc()
		ctx = q.logg.WithFields(ctx, queryFields(sql, rows, elapsed))
		q.logg.Error(ctx, "db.query_failed", err)
	case q.slowThreshold > 0 && elapsed > q.slowThreshold && q.level >= gormlogger.Warn:
		sql, rows := fc()
		ctx = q.logg.WithFields(ctx, queryFields(sql, rows, elapsed))
		q.logg.Warn(ctx, "db.slow_query")
	}
}

func queryFields(sql string, rows int64, elapsed time.Duration) map[string]any {
	return map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	}
}
