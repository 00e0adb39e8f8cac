package utils

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogrusLogger routes gorm's SQL logging into the logrus loggers.
type gormLogrusLogger struct {
	level logger.LogLevel
}

// NewGormLogger returns a gorm logger. verbose logs every statement.
func NewGormLogger(verbose bool) logger.Interface {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return &gormLogrusLogger{level: level}
}

func (l *gormLogrusLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level
	return &cloned
}

func (l *gormLogrusLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		InfoLogger.WithContext(ctx).Infof(msg, args...)
	}
}

func (l *gormLogrusLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		InfoLogger.WithContext(ctx).Warnf(msg, args...)
	}
}

func (l *gormLogrusLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		ErrorLogger.WithContext(ctx).Errorf(msg, args...)
	}
}

func (l *gormLogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{
		"elapsed": elapsed.String(),
		"rows":    rows,
		"sql":     sql,
	}

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		ErrorLogger.WithContext(ctx).WithFields(fields).WithError(err).Error("gorm query failed")
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		InfoLogger.WithContext(ctx).WithFields(fields).Warn("gorm slow query")
	case l.level >= logger.Info:
		InfoLogger.WithContext(ctx).WithFields(fields).Debug("gorm query")
	}
}
