package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// byteUnits is the binary unit ladder; YiB is the fallthrough past the end.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB"}

// Bytes converts a byte count to a human readable string such as "3.5 GiB"
func Bytes(n int64) string {
	return human(float64(n))
}

// Ubytes formats an unsigned byte count as reported by the metrics source
func Ubytes(n uint64) string {
	return human(float64(n))
}

func human(value float64) string {
	for _, unit := range byteUnits {
		if math.Abs(value) < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f YiB", value)
}

// Percent prints a percentage at its native precision, keeping at least
// one decimal so whole values read as "10.0".
func Percent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") && !math.IsInf(v, 0) && !math.IsNaN(v) {
		s += ".0"
	}
	return s
}
