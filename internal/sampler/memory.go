package sampler

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

const mib = 1024 * 1024

// MemorySource reports RAM usage. Where the numbers come from is host
// specific; the sampler only needs used and total.
type MemorySource interface {
	Memory() (usedBytes, totalBytes uint64, err error)
}

// MemorySourceFunc adapts a function to MemorySource.
type MemorySourceFunc func() (uint64, uint64, error)

// Memory calls f.
func (f MemorySourceFunc) Memory() (uint64, uint64, error) { return f() }

// VirtualMemory reads /proc/meminfo through gopsutil.
type VirtualMemory struct{}

// Memory implements MemorySource.
func (VirtualMemory) Memory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, fmt.Errorf("virtual memory: %v: %w", err, ErrUnavailable)
	}
	return vm.Used, vm.Total, nil
}

// FirstMemory tries each source in order and returns the first with a
// non-zero total.
type FirstMemory []MemorySource

// Memory implements MemorySource.
func (f FirstMemory) Memory() (uint64, uint64, error) {
	var errs []error
	for _, src := range f {
		used, total, err := src.Memory()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if total > 0 {
			return used, total, nil
		}
	}
	if len(errs) == 0 {
		return 0, 0, fmt.Errorf("no memory source reported a total: %w", ErrUnavailable)
	}
	return 0, 0, errors.Join(errs...)
}

// DefaultMemorySource is gopsutil with a sysinfo(2) fallback where the
// platform has one.
func DefaultMemorySource() MemorySource {
	return FirstMemory{VirtualMemory{}, SysinfoMemory{}}
}

func toMiB(b uint64) uint64 { return b / mib }
