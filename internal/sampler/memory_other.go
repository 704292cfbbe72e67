//go:build !linux

package sampler

import "fmt"

// SysinfoMemory is a no-op outside Linux.
type SysinfoMemory struct{}

// Memory implements MemorySource.
func (SysinfoMemory) Memory() (uint64, uint64, error) {
	return 0, 0, fmt.Errorf("sysinfo: not supported: %w", ErrUnavailable)
}
