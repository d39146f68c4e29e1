package format

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.0 B"},
		{1, "1.0 B"},
		{1023, "1023.0 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{3758096384, "3.5 GiB"},
		{-1500, "-1.5 KiB"},
		{-2048, "-2.0 KiB"},
		{-1023, "-1023.0 B"},
		{1 << 60, "1.0 EiB"},
		{math.MaxInt64, "8.0 EiB"},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatInt(tt.in, 10), func(t *testing.T) {
			assert.Equal(t, tt.want, Bytes(tt.in))
		})
	}
}

func TestBytes_NumericPartInRange(t *testing.T) {
	for _, n := range []int64{0, 7, 1000, 1024, 4096, 1 << 20, 5 << 30, 1<<40 + 1, 1 << 50, 1<<62 + 12345, 1<<20 - 1, 1<<30 - 1} {
		out := Bytes(n)
		parts := strings.SplitN(out, " ", 2)
		require.Len(t, parts, 2, out)

		v, err := strconv.ParseFloat(parts[0], 64)
		require.NoError(t, err)
		if n >= 1024 {
			assert.GreaterOrEqual(t, v, 1.0, out)
		}

		// The unit is chosen on the exact value and only then rounded to one
		// decimal, so one byte short of a boundary prints as 1024.0 of the
		// smaller unit.
		if n == 1<<20-1 || n == 1<<30-1 {
			assert.Equal(t, 1024.0, v, out)
			continue
		}
		assert.Less(t, v, 1024.0, out)
	}

	assert.Equal(t, "1024.0 KiB", Bytes(1048575))
	assert.Equal(t, "1024.0 MiB", Bytes(1<<30-1))
}

func TestHuman_PastZebibytes(t *testing.T) {
	yobi := math.Pow(1024, 8)

	assert.Equal(t, "1.0 YiB", human(yobi))
	assert.Equal(t, "5.0 YiB", human(yobi*5))
	assert.Equal(t, "-2.0 YiB", human(-yobi*2))
	// No unit above YiB
	assert.Equal(t, "2048.0 YiB", human(yobi*2048))
	assert.Equal(t, "1023.0 ZiB", human(yobi/1024*1023))
}

func TestUbytes(t *testing.T) {
	assert.Equal(t, "1.5 KiB", Ubytes(1536))
	assert.Equal(t, "16.0 EiB", Ubytes(math.MaxUint64))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "10.0", Percent(10))
	assert.Equal(t, "85.0", Percent(85.0))
	assert.Equal(t, "0.0", Percent(0))
	assert.Equal(t, "12.3", Percent(12.3))
	assert.Equal(t, "45.67", Percent(45.67))
	assert.Equal(t, "100.0", Percent(100))
}
