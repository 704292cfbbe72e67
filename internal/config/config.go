package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config carries runtime options for sysmoni.
type Config struct {
	Interval    time.Duration `yaml:"interval"`
	HistorySize int           `yaml:"history_size"`
	JSON        bool          `yaml:"-"`
	JSONStream  bool          `yaml:"-"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	LogFile     string        `yaml:"log_file"`
	Sources     Sources       `yaml:"sources"`
	Thresholds  Thresholds    `yaml:"thresholds"`
}

// Sources lists the pseudo-files the sampler reads. Candidate lists are
// tried in order.
type Sources struct {
	Stat           string   `yaml:"stat"`
	ProcStat       string   `yaml:"proc_stat"`
	Thermal        []string `yaml:"thermal"`
	ThermalDivisor float64  `yaml:"thermal_divisor"`
	GPUFreq        []string `yaml:"gpu_freq"`
	GPUFreqDivisor float64  `yaml:"gpu_freq_divisor"`
	CPUFreqRoot    string   `yaml:"cpu_freq_root"`
}

// Thresholds drive the temperature and core-clock styling in the UI.
type Thresholds struct {
	WarmC       float64 `yaml:"warm_c"`
	HotC        float64 `yaml:"hot_c"`
	FastCoreMHz int     `yaml:"fast_core_mhz"`
}

const envPrefix = "SYSMONI_"

func Default() Config {
	return Config{
		Interval:    time.Second,
		HistorySize: 20,
		LogLevel:    "warn",
		LogFormat:   "text",
		Sources: Sources{
			Stat:     "/proc/stat",
			ProcStat: "/proc/self/stat",
			Thermal: []string{
				"/sys/class/thermal/thermal_zone0/temp",
				"/sys/class/thermal/thermal_zone1/temp",
				"/sys/devices/virtual/thermal/thermal_zone0/temp",
			},
			ThermalDivisor: 1000,
			GPUFreq: []string{
				"/sys/class/kgsl/kgsl-3d0/gpuclk",
				"/sys/class/misc/mali0/device/clock",
			},
			GPUFreqDivisor: 1_000_000,
			CPUFreqRoot:    "/sys/devices/system/cpu",
		},
		Thresholds: Thresholds{WarmC: 50, HotC: 70, FastCoreMHz: 2000},
	}
}

// RegisterFlags binds command-line flags to c. Pass Default() values in c so
// help text shows the defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&c.Interval, "interval", c.Interval, "refresh interval")
	fs.IntVar(&c.HistorySize, "history", c.HistorySize, "number of CPU samples kept for the sparkline")
	fs.BoolVar(&c.JSON, "json", c.JSON, "output one-shot JSON and exit")
	fs.BoolVar(&c.JSONStream, "json-stream", c.JSONStream, "stream NDJSON until interrupted")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text|json")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "write logs to this file (TUI mode discards logs otherwise)")
	fs.StringVar(&c.Sources.Stat, "stat", c.Sources.Stat, "system CPU counter file")
	fs.StringVar(&c.Sources.ProcStat, "proc-stat", c.Sources.ProcStat, "per-process stat file used when the counter file is unreadable")
	fs.StringSliceVar(&c.Sources.Thermal, "thermal", c.Sources.Thermal, "temperature candidates in priority order")
	fs.StringSliceVar(&c.Sources.GPUFreq, "gpu-freq", c.Sources.GPUFreq, "GPU clock candidates in priority order")
	fs.Float64Var(&c.Sources.ThermalDivisor, "thermal-divisor", c.Sources.ThermalDivisor, "divides raw temperature readings into °C")
	fs.Float64Var(&c.Sources.GPUFreqDivisor, "gpu-freq-divisor", c.Sources.GPUFreqDivisor, "divides raw GPU clock readings into MHz")
	fs.StringVar(&c.Sources.CPUFreqRoot, "cpu-freq-root", c.Sources.CPUFreqRoot, "directory holding cpu<N>/cpufreq")
	fs.Float64Var(&c.Thresholds.WarmC, "warm-c", c.Thresholds.WarmC, "temperature above which the reading turns amber")
	fs.Float64Var(&c.Thresholds.HotC, "hot-c", c.Thresholds.HotC, "temperature above which the reading turns red")
	fs.IntVar(&c.Thresholds.FastCoreMHz, "fast-core-mhz", c.Thresholds.FastCoreMHz, "highlight cores clocked above this")
}

// Load builds the effective configuration. Precedence, lowest first:
// defaults, the YAML file at path (if non-empty), .env, SYSMONI_*
// environment, then flags explicitly set in fs (whose values live in
// flagged).
func Load(path string, fs *pflag.FlagSet, flagged Config) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	_ = godotenv.Load()
	ApplyEnv(&cfg, os.Getenv)

	if fs != nil {
		overlayFlags(&cfg, fs, flagged)
	}
	return cfg, cfg.Validate()
}

// LoadFile merges YAML from path into cfg. Keys absent from the file keep
// their current values.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies SYSMONI_* overrides read through getenv. Unparseable
// values are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(envPrefix + "INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	if v := getenv(envPrefix + "HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistorySize = n
		}
	}
	if v := getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(envPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := getenv(envPrefix + "LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := getenv(envPrefix + "STAT"); v != "" {
		cfg.Sources.Stat = v
	}
	if v := getenv(envPrefix + "PROC_STAT"); v != "" {
		cfg.Sources.ProcStat = v
	}
	if v := getenv(envPrefix + "THERMAL"); v != "" {
		cfg.Sources.Thermal = splitList(v)
	}
	if v := getenv(envPrefix + "GPU_FREQ"); v != "" {
		cfg.Sources.GPUFreq = splitList(v)
	}
	envFloat(getenv, "THERMAL_DIVISOR", &cfg.Sources.ThermalDivisor)
	envFloat(getenv, "GPU_FREQ_DIVISOR", &cfg.Sources.GPUFreqDivisor)
	if v := getenv(envPrefix + "CPU_FREQ_ROOT"); v != "" {
		cfg.Sources.CPUFreqRoot = v
	}
	envFloat(getenv, "WARM_C", &cfg.Thresholds.WarmC)
	envFloat(getenv, "HOT_C", &cfg.Thresholds.HotC)
	if v := getenv(envPrefix + "FAST_CORE_MHZ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Thresholds.FastCoreMHz = n
		}
	}
}

func envFloat(getenv func(string) string, key string, dst *float64) {
	if v := getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func overlayFlags(cfg *Config, fs *pflag.FlagSet, flagged Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Interval = flagged.Interval
		case "history":
			cfg.HistorySize = flagged.HistorySize
		case "json":
			cfg.JSON = flagged.JSON
		case "json-stream":
			cfg.JSONStream = flagged.JSONStream
		case "log-level":
			cfg.LogLevel = flagged.LogLevel
		case "log-format":
			cfg.LogFormat = flagged.LogFormat
		case "log-file":
			cfg.LogFile = flagged.LogFile
		case "stat":
			cfg.Sources.Stat = flagged.Sources.Stat
		case "proc-stat":
			cfg.Sources.ProcStat = flagged.Sources.ProcStat
		case "thermal":
			cfg.Sources.Thermal = flagged.Sources.Thermal
		case "gpu-freq":
			cfg.Sources.GPUFreq = flagged.Sources.GPUFreq
		case "thermal-divisor":
			cfg.Sources.ThermalDivisor = flagged.Sources.ThermalDivisor
		case "gpu-freq-divisor":
			cfg.Sources.GPUFreqDivisor = flagged.Sources.GPUFreqDivisor
		case "cpu-freq-root":
			cfg.Sources.CPUFreqRoot = flagged.Sources.CPUFreqRoot
		case "warm-c":
			cfg.Thresholds.WarmC = flagged.Thresholds.WarmC
		case "hot-c":
			cfg.Thresholds.HotC = flagged.Thresholds.HotC
		case "fast-core-mhz":
			cfg.Thresholds.FastCoreMHz = flagged.Thresholds.FastCoreMHz
		}
	})
}

// Validate rejects settings the sampler cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("history must be at least 1, got %d", c.HistorySize))
	}
	if c.Sources.Stat == "" {
		errs = append(errs, errors.New("stat path is empty"))
	}
	if !(c.Sources.ThermalDivisor > 0) {
		errs = append(errs, fmt.Errorf("thermal divisor must be positive, got %g", c.Sources.ThermalDivisor))
	}
	if !(c.Sources.GPUFreqDivisor > 0) {
		errs = append(errs, fmt.Errorf("gpu clock divisor must be positive, got %g", c.Sources.GPUFreqDivisor))
	}
	if c.Thresholds.WarmC > c.Thresholds.HotC {
		errs = append(errs, fmt.Errorf("warm threshold %g is above hot threshold %g", c.Thresholds.WarmC, c.Thresholds.HotC))
	}
	if c.Thresholds.FastCoreMHz < 0 {
		errs = append(errs, fmt.Errorf("fast core threshold must not be negative, got %d", c.Thresholds.FastCoreMHz))
	}
	if c.JSON && c.JSONStream {
		errs = append(errs, errors.New("--json and --json-stream are mutually exclusive"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
