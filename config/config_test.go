package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaultsUnderPartialFile(t *testing.T) {
	path := writeFile(t, `
timeframe: 4h
min_signal_strength: 60
enabled_strategies: [ema-ribbon, breakout]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "4h", cfg.Timeframe)
	assert.Equal(t, 60.0, cfg.MinSignalStrength)
	assert.Equal(t, []string{"ema-ribbon", "breakout"}, cfg.EnabledStrategies)

	// untouched fields keep their defaults
	assert.Equal(t, 10000.0, cfg.StartEquity)
	assert.Equal(t, 5, cfg.MaxOpenPositions)
	assert.Equal(t, 200, cfg.WarmupBars)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"negative equity":    "start_equity: -5",
		"oversized position": "position_size_percent: 150",
		"zero positions":     "max_open_positions: 0",
		"strength over 100":  "min_signal_strength: 120",
		"bad timeframe":      "timeframe: whenever",
		"confirm factor one": "confirmation_factor: 1",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.EnabledStrategies = []string{"macd-cross"}

	path := filepath.Join(t.TempDir(), "out.yml")
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestBacktestConfigEnabledSet(t *testing.T) {
	cfg := Default()
	assert.Nil(t, cfg.BacktestConfig().Enabled)

	cfg.EnabledStrategies = []string{"breakout"}
	enabled := cfg.BacktestConfig().Enabled
	require.NotNil(t, enabled)
	assert.True(t, enabled.InArray("breakout"))
	assert.False(t, enabled.InArray("ema-ribbon"))
}
