package sampler

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrUnavailable marks a source that could not be read or parsed this tick.
// It is expected on many devices and never fatal.
var ErrUnavailable = errors.New("source unavailable")

// CPUCounters holds the cumulative tick counters from the first line of
// /proc/stat:
//
//	cpu  user nice system idle [iowait irq softirq ...]
//
// Trailing fields are ignored.
type CPUCounters struct {
	User   uint64
	Nice   uint64
	System uint64
	Idle   uint64
}

// Active returns the non-idle ticks.
func (c CPUCounters) Active() uint64 { return c.User + c.Nice + c.System }

// ReadCPUCounters parses the first line of path. Any failure is returned
// wrapped around ErrUnavailable.
func ReadCPUCounters(path string) (CPUCounters, error) {
	line, err := readFirstLine(path)
	if err != nil {
		return CPUCounters{}, err
	}

	fields := strings.Fields(line)
	if len(fields) < 5 {
		return CPUCounters{}, fmt.Errorf("%s: want label and 4 counters, got %d fields: %w", path, len(fields), ErrUnavailable)
	}

	var values [4]uint64
	for i := range values {
		v, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return CPUCounters{}, fmt.Errorf("%s: field %d: %v: %w", path, i+1, err, ErrUnavailable)
		}
		values[i] = v
	}

	return CPUCounters{
		User:   values[0],
		Nice:   values[1],
		System: values[2],
		Idle:   values[3],
	}, nil
}

// ProcessCounters holds a process's cumulative user and kernel ticks
// (utime and stime in /proc/<pid>/stat).
type ProcessCounters struct {
	UTime uint64
	STime uint64
}

// Total returns utime + stime.
func (p ProcessCounters) Total() uint64 { return p.UTime + p.STime }

// Zero-based field positions in /proc/<pid>/stat.
const (
	utimeField = 13
	stimeField = 14
)

// ReadProcessCounters parses utime and stime from a /proc/<pid>/stat file.
// The comm field may contain spaces, so fields are counted from the last
// closing parenthesis.
func ReadProcessCounters(path string) (ProcessCounters, error) {
	line, err := readFirstLine(path)
	if err != nil {
		return ProcessCounters{}, err
	}

	end := strings.LastIndexByte(line, ')')
	if end < 0 {
		return ProcessCounters{}, fmt.Errorf("%s: missing comm field: %w", path, ErrUnavailable)
	}
	// Everything after the comm starts at field 2 (state).
	fields := strings.Fields(line[end+1:])
	const offset = 2
	if len(fields) <= stimeField-offset {
		return ProcessCounters{}, fmt.Errorf("%s: want %d fields, got %d: %w", path, stimeField+1, len(fields)+offset, ErrUnavailable)
	}

	utime, err := strconv.ParseUint(fields[utimeField-offset], 10, 64)
	if err != nil {
		return ProcessCounters{}, fmt.Errorf("%s: utime: %v: %w", path, err, ErrUnavailable)
	}
	stime, err := strconv.ParseUint(fields[stimeField-offset], 10, 64)
	if err != nil {
		return ProcessCounters{}, fmt.Errorf("%s: stime: %v: %w", path, err, ErrUnavailable)
	}
	return ProcessCounters{UTime: utime, STime: stime}, nil
}

func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("%s: %v: %w", path, err, ErrUnavailable)
		}
		return "", fmt.Errorf("%s: empty: %w", path, ErrUnavailable)
	}
	return sc.Text(), nil
}
