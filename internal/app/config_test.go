package app

import (
	"path/filepath"
	"testing"
	"time"

	"touch_daily/internal/costindex"
	"touch_daily/internal/touch"
	"touch_daily/internal/workbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

func TestLoadConfigDefaults(t *testing.T) {
	v := NewViper()
	for _, key := range []string{KeyTouchStores, KeyDate, KeyWindowAnchor, KeyOutputDir, KeyTouchTimeout, KeyTouchBase, KeyScanLimit, KeyTargetSheet} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig(v, now)
	require.NoError(t, err)

	assert.Empty(t, cfg.Stores)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), cfg.Date)
	assert.Equal(t, costindex.AnchorCurrentMonth, cfg.WindowAnchor)
	assert.Equal(t, 45*time.Second, cfg.TouchTimeout)
	assert.Equal(t, 45*time.Second, cfg.Resilience.APIRequest.Timeout)
	assert.Equal(t, "BBDDcoste", cfg.TargetSheet)
	assert.Equal(t, workbook.DefaultScanLimit, cfg.ScanLimit)
	assert.Equal(t, touch.DefaultBaseURL, cfg.TouchBase)
	assert.Equal(t, "ventas_2025-03-10.csv", cfg.CSVPath())
	assert.Equal(t, "Daily_2025-03-10.xlsx", cfg.WorkbookPath())
}

func TestLoadConfigOverrides(t *testing.T) {
	v := NewViper()
	v.Set(KeyTouchStores, "12, 3")
	v.Set(KeyDate, "2025-02-28")
	v.Set(KeyWindowAnchor, "target-month")
	v.Set(KeyOutputDir, "/tmp/daily")
	v.Set(KeyTouchTimeout, 5)
	v.Set(KeyNtfyEnabled, "true")

	cfg, err := LoadConfig(v, now)
	require.NoError(t, err)

	assert.Equal(t, []int{12, 3}, cfg.Stores)
	assert.Equal(t, 28, cfg.Date.Day())
	assert.Equal(t, costindex.AnchorTargetMonth, cfg.WindowAnchor)
	assert.Equal(t, 5*time.Second, cfg.TouchTimeout)
	assert.True(t, cfg.NtfyEnabled)
	assert.Equal(t, filepath.Join("/tmp/daily", "ventas_2025-02-28.csv"), cfg.CSVPath())
	assert.Equal(t, filepath.Join("/tmp/daily", "Daily_2025-02-28.xlsx"), cfg.WorkbookPath())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		KeyTouchStores:  "1,x",
		KeyDate:         "28/02/2025",
		KeyWindowAnchor: "yesterday",
		KeyTouchTimeout: "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			v := NewViper()
			v.Set(key, value)
			_, err := LoadConfig(v, now)
			assert.Error(t, err)
		})
	}
}

func TestParseStores(t *testing.T) {
	ids, err := ParseStores("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = ParseStores(" 4 ,, 7,")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7}, ids)

	_, err = ParseStores("4;7")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("  ", now)
	require.NoError(t, err)
	assert.Equal(t, 10, d.Day())
	assert.Zero(t, d.Hour())

	d, err = ParseDate("2024-12-31", now)
	require.NoError(t, err)
	assert.Equal(t, time.December, d.Month())
}

func TestNewNotificationClientDisabled(t *testing.T) {
	cfg := &Config{NtfyURL: "https://ntfy.sh", NtfyTopic: "t"}
	assert.False(t, cfg.NewNotificationClient().Enabled())
}
