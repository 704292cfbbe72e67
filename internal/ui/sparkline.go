package ui

import "strings"

// sparkline block characters from lowest to highest
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkline renders one block per value scaled between the window's min and
// max. Fewer than two points draw nothing.
func sparkline(values []float64) string {
	if len(values) < 2 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var b strings.Builder
	rng := hi - lo
	for _, v := range values {
		idx := 0
		if rng > 0 {
			idx = int((v - lo) / rng * float64(len(sparkBlocks)-1))
		}
		idx = max(0, min(idx, len(sparkBlocks)-1))
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
