package sampler

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"

	"github.com/Dicklesworthstone/sysmonitor/internal/config"
	"github.com/Dicklesworthstone/sysmonitor/internal/model"
)

// Sampler builds one Sample per tick from procfs and sysfs. It owns its
// derivers, so a Sampler must be driven by one goroutine at a time.
type Sampler struct {
	Interval time.Duration

	// Collaborators. New fills them with the real host implementations;
	// tests swap them.
	Memory       MemorySource
	Now          func() time.Time
	CoreCount    func() int
	ProcessCount func() int

	sources config.Sources
	log     *logrus.Logger

	cpu  *UsageDeriver
	proc *ProcessDeriver
}

func New(cfg config.Config, log *logrus.Logger) *Sampler {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Sampler{
		Interval:     cfg.Interval,
		Memory:       DefaultMemorySource(),
		Now:          time.Now,
		CoreCount:    logicalCores,
		ProcessCount: processCount,
		sources:      cfg.Sources,
		log:          log,
		cpu:          NewUsageDeriver(),
		proc:         NewProcessDeriver(),
	}
}

// Stream returns a channel that receives one snapshot per Interval until
// ctx is done, then closes.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Sample {
	ch := make(chan model.Sample)
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-ticker.C:
				select {
				case ch <- s.SampleOnce():
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// SampleOnce reads every source once and assembles a snapshot. Sources that
// fail leave their sentinel in place; the snapshot is always produced.
func (s *Sampler) SampleOnce() model.Sample {
	now := s.Now()
	sample := model.Sample{
		Timestamp: now,
		Interval:  s.Interval,
	}

	sample.CPU.UsagePercent, sample.CPU.Source = s.cpuUsage(now)

	if temp, ok := ReadFirstAvailable(s.sources.Thermal, s.sources.ThermalDivisor); ok {
		sample.CPU.TemperatureC = temp
	} else {
		s.log.WithField("candidates", len(s.sources.Thermal)).Debug("No temperature sensor available")
	}

	if n := s.CoreCount(); n > 0 {
		sample.CPU.CoreFreqMHz = ReadCoreFrequencies(s.sources.CPUFreqRoot, n)
	}

	sample.Memory = s.memory()

	if mhz, ok := ReadFirstAvailable(s.sources.GPUFreq, s.sources.GPUFreqDivisor); ok {
		sample.GPU.FrequencyMHz = int(mhz)
	} else {
		s.log.WithField("candidates", len(s.sources.GPUFreq)).Debug("No GPU clock available")
	}

	sample.Processes = s.ProcessCount()
	return sample
}

// cpuUsage prefers the system-wide counters and falls back to this
// process's own ticks when the counter file cannot be read.
func (s *Sampler) cpuUsage(now time.Time) (float64, model.CPUSource) {
	counters, err := ReadCPUCounters(s.sources.Stat)
	if err == nil {
		if pct, ok := s.cpu.Derive(counters); ok {
			return pct, model.SourceSystem
		}
		return 0, model.SourceUnavailable
	}
	s.log.WithError(err).Debug("CPU counters unavailable, trying process fallback")

	if s.sources.ProcStat == "" {
		return 0, model.SourceUnavailable
	}
	pc, err := ReadProcessCounters(s.sources.ProcStat)
	if err != nil {
		s.log.WithError(err).Debug("Process counters unavailable")
		return 0, model.SourceUnavailable
	}
	if pct, ok := s.proc.Derive(pc, now); ok {
		return pct, model.SourceProcess
	}
	return 0, model.SourceUnavailable
}

func (s *Sampler) memory() model.Memory {
	if s.Memory == nil {
		return model.Memory{}
	}
	used, total, err := s.Memory.Memory()
	if err != nil {
		s.log.WithError(err).Debug("Memory info unavailable")
		return model.Memory{}
	}
	return model.Memory{UsedMB: toMiB(used), TotalMB: toMiB(total)}
}

func logicalCores() int {
	n, err := cpu.Counts(true)
	if err != nil {
		return 0
	}
	return n
}

func processCount() int {
	pids, err := process.Pids()
	if err != nil {
		return 0
	}
	return len(pids)
}
