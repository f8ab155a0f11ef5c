package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	log, err := New("debug")
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zap.DebugLevel))

	log, err = New("")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zap.DebugLevel))

	_, err = New("loud")
	require.Error(t, err)
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 10*time.Millisecond)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	require.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 2", 1 }, nil)
	require.Equal(t, 1, logs.FilterMessage("slow query").Len())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 3", 0 }, errors.New("boom"))
	require.Equal(t, 1, logs.FilterMessage("query failed").Len())

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 4", 0 }, errors.New("boom"))
	require.Equal(t, 2, logs.Len())
}
