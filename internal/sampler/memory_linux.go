//go:build linux

package sampler

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SysinfoMemory reads total and free RAM via sysinfo(2). It counts page
// cache as used, so it is only a fallback.
type SysinfoMemory struct{}

// Memory implements MemorySource.
func (SysinfoMemory) Memory() (uint64, uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, 0, fmt.Errorf("sysinfo: %v: %w", err, ErrUnavailable)
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	total := uint64(info.Totalram) * unit
	free := uint64(info.Freeram) * unit
	if total < free {
		return 0, 0, fmt.Errorf("sysinfo: free exceeds total: %w", ErrUnavailable)
	}
	return total - free, total, nil
}
