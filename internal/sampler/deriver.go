package sampler

import "time"

// ClockTicks is the assumed USER_HZ used to turn process ticks into seconds.
const ClockTicks = 100

// UsageDeriver turns successive CPUCounters into a utilization percentage.
// It keeps the previous reading as its baseline and is not safe for
// concurrent use; one owner drives it tick by tick.
type UsageDeriver struct {
	prev CPUCounters
	has  bool
}

// NewUsageDeriver returns a deriver with no baseline.
func NewUsageDeriver() *UsageDeriver { return &UsageDeriver{} }

// Derive returns the busy percentage since the previous call. The bool is
// false on the first call, when no ticks elapsed, or when a counter went
// backwards; in every case cur becomes the next baseline.
func (d *UsageDeriver) Derive(cur CPUCounters) (float64, bool) {
	prev, had := d.prev, d.has
	d.prev, d.has = cur, true
	if !had {
		return 0, false
	}

	if cur.User < prev.User || cur.Nice < prev.Nice || cur.System < prev.System || cur.Idle < prev.Idle {
		return 0, false
	}

	active := int64(cur.Active()) - int64(prev.Active())
	total := active + int64(cur.Idle) - int64(prev.Idle)
	if total <= 0 {
		return 0, false
	}
	return clampPercent(float64(active) / float64(total) * 100), true
}

// Reset drops the baseline.
func (d *UsageDeriver) Reset() { d.prev, d.has = CPUCounters{}, false }

// ProcessDeriver approximates CPU usage from a single process's tick
// counters. The result is a share of one CPU, not a system-wide figure.
type ProcessDeriver struct {
	prev   ProcessCounters
	prevAt time.Time
	has    bool
}

// NewProcessDeriver returns a deriver with no baseline.
func NewProcessDeriver() *ProcessDeriver { return &ProcessDeriver{} }

// Derive returns the process's CPU percentage between the previous call and
// at, assuming ClockTicks ticks per second.
func (d *ProcessDeriver) Derive(cur ProcessCounters, at time.Time) (float64, bool) {
	prev, prevAt, had := d.prev, d.prevAt, d.has
	d.prev, d.prevAt, d.has = cur, at, true
	if !had || cur.Total() < prev.Total() {
		return 0, false
	}

	elapsed := at.Sub(prevAt).Seconds()
	if elapsed <= 0 {
		return 0, false
	}
	cpuSeconds := float64(cur.Total()-prev.Total()) / ClockTicks
	return clampPercent(cpuSeconds / elapsed * 100), true
}

// Reset drops the baseline.
func (d *ProcessDeriver) Reset() { d.prev, d.prevAt, d.has = ProcessCounters{}, time.Time{}, false }

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
