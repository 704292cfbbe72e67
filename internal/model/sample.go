package model

import "time"

// CPUSource tags where a CPU usage figure came from.
type CPUSource int

const (
	// SourceUnavailable means no percentage could be derived this tick.
	SourceUnavailable CPUSource = iota
	// SourceSystem is the system-wide figure from /proc/stat.
	SourceSystem
	// SourceProcess is the per-process approximation used when /proc/stat
	// cannot be read.
	SourceProcess
)

func (s CPUSource) String() string {
	switch s {
	case SourceSystem:
		return "system"
	case SourceProcess:
		return "process"
	default:
		return "unavailable"
	}
}

// MarshalText lets the tag serialize as its name in JSON output.
func (s CPUSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// CPU aggregates instantaneous CPU state.
type CPU struct {
	UsagePercent float64   `json:"usage_percent"` // 0-100, meaningful only when Source != SourceUnavailable
	Source       CPUSource `json:"source"`
	TemperatureC float64   `json:"temperature_c"` // <= 0 means unknown
	CoreFreqMHz  []int     `json:"core_freq_mhz"` // 0 means offline
}

// Available reports whether UsagePercent holds a derived value.
func (c CPU) Available() bool { return c.Source != SourceUnavailable }

// Memory captures RAM usage in MiB. Zero total means unknown.
type Memory struct {
	UsedMB  uint64 `json:"used_mb"`
	TotalMB uint64 `json:"total_mb"`
}

// FreeMB returns TotalMB - UsedMB, never underflowing.
func (m Memory) FreeMB() uint64 {
	if m.UsedMB > m.TotalMB {
		return 0
	}
	return m.TotalMB - m.UsedMB
}

// Percent returns used/total as 0-100, or 0 when total is unknown.
func (m Memory) Percent() float64 {
	if m.TotalMB == 0 {
		return 0
	}
	return float64(m.UsedMB) * 100 / float64(m.TotalMB)
}

// GPU holds the current GPU clock; 0 means unknown.
type GPU struct {
	FrequencyMHz int `json:"frequency_mhz"`
}

// Sample is the snapshot exchanged between sampler, UI, and JSON exporter.
type Sample struct {
	Timestamp time.Time     `json:"timestamp"`
	Interval  time.Duration `json:"interval"`
	CPU       CPU           `json:"cpu"`
	Memory    Memory        `json:"memory"`
	GPU       GPU           `json:"gpu"`
	Processes int           `json:"processes"`
}

// Zero returns an empty sample for initialization.
func Zero() Sample { return Sample{Timestamp: time.Now()} }
