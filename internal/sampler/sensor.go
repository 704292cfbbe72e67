package sampler

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadFirstAvailable scans paths in order and returns the first value that
// reads, parses, and is positive after dividing by divisor. Zero readings
// are skipped because some nodes report 0 while their sensor or rail is
// powered off. A non-positive divisor is treated as 1.
func ReadFirstAvailable(paths []string, divisor float64) (float64, bool) {
	if divisor <= 0 {
		divisor = 1
	}
	for _, p := range paths {
		raw, err := readNumber(p)
		if err != nil {
			continue
		}
		if v := raw / divisor; v > 0 {
			return v, true
		}
	}
	return 0, false
}

// readNumber parses the first line of a sysfs node. Thermal, clock and
// cpufreq nodes hold decimal integers; anything else (inf, NaN, hex,
// fractions) is rejected.
func readNumber(path string) (float64, error) {
	line, err := readFirstLine(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", path, err, ErrUnavailable)
	}
	return float64(v), nil
}

// ReadCoreFrequencies returns the current clock of cores 0..n-1 in MHz from
// <root>/cpu<i>/cpufreq/scaling_cur_freq (kHz). Offline or missing cores
// read as 0.
func ReadCoreFrequencies(root string, n int) []int {
	if n <= 0 {
		return nil
	}
	freqs := make([]int, n)
	for i := range freqs {
		p := filepath.Join(root, "cpu"+strconv.Itoa(i), "cpufreq", "scaling_cur_freq")
		khz, err := readNumber(p)
		if err != nil || khz <= 0 {
			continue
		}
		freqs[i] = int(khz / 1000)
	}
	return freqs
}
