package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Dhaka", cfg.Org.Location.String())
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, cfg.Org.WeekendDays)
	assert.Equal(t, "09:00", cfg.Org.DefaultShiftStart)
	assert.Equal(t, LockMemory, cfg.Lock.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.DeviceSyncInterval)
	assert.True(t, cfg.Jobs.MarkAbsentEnabled)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad shift", "DEFAULT_SHIFT_START", "9am"},
		{"bad timezone", "ORG_TIMEZONE", "Mars/Olympus"},
		{"bad weekend", "WEEKEND_DAYS", "Funday"},
		{"bad lock backend", "LOCK_BACKEND", "etcd"},
		{"sync without brokers", "DEVICE_SYNC_ENABLED", "true"},
		{"bad store", "STORE", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE", "memory")
			t.Setenv("JWT_SECRET_KEY", "secret")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_PostgresNeedsPassword(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_PASSWORD")
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"sunday", " Monday "})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Monday}, days)
}
