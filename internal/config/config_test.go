package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 20, cfg.HistorySize)
	assert.Equal(t, "/proc/stat", cfg.Sources.Stat)
	assert.Equal(t, []string{
		"/sys/class/thermal/thermal_zone0/temp",
		"/sys/class/thermal/thermal_zone1/temp",
		"/sys/devices/virtual/thermal/thermal_zone0/temp",
	}, cfg.Sources.Thermal)
	assert.Equal(t, 1000.0, cfg.Sources.ThermalDivisor)
	assert.Equal(t, []string{
		"/sys/class/kgsl/kgsl-3d0/gpuclk",
		"/sys/class/misc/mali0/device/clock",
	}, cfg.Sources.GPUFreq)
	assert.Equal(t, 1_000_000.0, cfg.Sources.GPUFreqDivisor)
	assert.Equal(t, Thresholds{WarmC: 50, HotC: 70, FastCoreMHz: 2000}, cfg.Thresholds)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sysmoni.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
interval: 2s
history_size: 40
sources:
  thermal:
    - /sys/class/hwmon/hwmon0/temp1_input
thresholds:
  hot_c: 80
`), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(p, &cfg))

	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 40, cfg.HistorySize)
	assert.Equal(t, []string{"/sys/class/hwmon/hwmon0/temp1_input"}, cfg.Sources.Thermal)
	assert.Equal(t, 80.0, cfg.Thresholds.HotC)
	// untouched keys keep defaults
	assert.Equal(t, 50.0, cfg.Thresholds.WarmC)
	assert.Equal(t, "/proc/stat", cfg.Sources.Stat)
	assert.Equal(t, Default().Sources.GPUFreq, cfg.Sources.GPUFreq)
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("interval: [\n"), 0o644))
	assert.Error(t, LoadFile(p, &cfg))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SYSMONI_INTERVAL":  "3",
		"SYSMONI_HISTORY":   "10",
		"SYSMONI_LOG_LEVEL": "debug",
		"SYSMONI_THERMAL":   " /a/temp , ,/b/temp",
		"SYSMONI_GPU_FREQ":  "/gpu/clk",
		"SYSMONI_STAT":      "/tmp/stat",

		"SYSMONI_THERMAL_DIVISOR":  "10",
		"SYSMONI_GPU_FREQ_DIVISOR": "1000",
		"SYSMONI_CPU_FREQ_ROOT":    "/tmp/cpu",
		"SYSMONI_WARM_C":           "45.5",
		"SYSMONI_HOT_C":            "65",
		"SYSMONI_FAST_CORE_MHZ":    "2200",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, 10, cfg.HistorySize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"/a/temp", "/b/temp"}, cfg.Sources.Thermal)
	assert.Equal(t, []string{"/gpu/clk"}, cfg.Sources.GPUFreq)
	assert.Equal(t, "/tmp/stat", cfg.Sources.Stat)
	assert.Equal(t, 10.0, cfg.Sources.ThermalDivisor)
	assert.Equal(t, 1000.0, cfg.Sources.GPUFreqDivisor)
	assert.Equal(t, "/tmp/cpu", cfg.Sources.CPUFreqRoot)
	assert.Equal(t, Thresholds{WarmC: 45.5, HotC: 65, FastCoreMHz: 2200}, cfg.Thresholds)
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	env := map[string]string{
		"SYSMONI_INTERVAL": "soon",
		"SYSMONI_HISTORY":  "many",

		"SYSMONI_THERMAL_DIVISOR": "a thousand",
		"SYSMONI_HOT_C":           "hot",
		"SYSMONI_FAST_CORE_MHZ":   "2.4GHz",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 20, cfg.HistorySize)
	assert.Equal(t, 1000.0, cfg.Sources.ThermalDivisor)
	assert.Equal(t, Default().Thresholds, cfg.Thresholds)
}

func TestLoadPrecedence(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sysmoni.yaml")
	require.NoError(t, os.WriteFile(p, []byte("interval: 2s\nhistory_size: 40\nlog_level: info\n"), 0o644))
	t.Setenv("SYSMONI_HISTORY", "30")
	t.Setenv("SYSMONI_INTERVAL", "")
	t.Setenv("SYSMONI_LOG_LEVEL", "")
	t.Setenv("SYSMONI_HOT_C", "75")
	t.Setenv("SYSMONI_FAST_CORE_MHZ", "")

	flagged := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagged.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "error", "--thermal", "/x,/y",
		"--hot-c", "80", "--fast-core-mhz", "1800", "--cpu-freq-root", "/host/cpu"}))

	cfg, err := Load(p, fs, flagged)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Interval, "file beats default")
	assert.Equal(t, 30, cfg.HistorySize, "env beats file")
	assert.Equal(t, "error", cfg.LogLevel, "flag beats file")
	assert.Equal(t, []string{"/x", "/y"}, cfg.Sources.Thermal)
	assert.Equal(t, 80.0, cfg.Thresholds.HotC, "flag beats env")
	assert.Equal(t, 1800, cfg.Thresholds.FastCoreMHz)
	assert.Equal(t, "/host/cpu", cfg.Sources.CPUFreqRoot)
	assert.Equal(t, 1000.0, cfg.Sources.ThermalDivisor, "unset flag keeps default")
	assert.False(t, cfg.JSON)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Interval = 0 }},
		{"empty history", func(c *Config) { c.HistorySize = 0 }},
		{"no stat path", func(c *Config) { c.Sources.Stat = "" }},
		{"both json modes", func(c *Config) { c.JSON, c.JSONStream = true, true }},
		{"zero thermal divisor", func(c *Config) { c.Sources.ThermalDivisor = 0 }},
		{"negative thermal divisor", func(c *Config) { c.Sources.ThermalDivisor = -1000 }},
		{"zero gpu divisor", func(c *Config) { c.Sources.GPUFreqDivisor = 0 }},
		{"negative gpu divisor", func(c *Config) { c.Sources.GPUFreqDivisor = -1 }},
		{"warm above hot", func(c *Config) { c.Thresholds.WarmC, c.Thresholds.HotC = 80, 60 }},
		{"negative fast core", func(c *Config) { c.Thresholds.FastCoreMHz = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsNonPositiveDivisorFromEnv(t *testing.T) {
	t.Setenv("SYSMONI_GPU_FREQ_DIVISOR", "0")

	_, err := Load("", nil, Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpu clock divisor")
}
