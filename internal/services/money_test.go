package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorToDecimal(t *testing.T) {
	assert.Equal(t, "0.00", MinorToDecimal(0))
	assert.Equal(t, "0.05", MinorToDecimal(5))
	assert.Equal(t, "1.00", MinorToDecimal(100))
	assert.Equal(t, "199.90", MinorToDecimal(19990))
	assert.Equal(t, "1000.01", MinorToDecimal(100001))
}

func TestDecimalToMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0.00", 0},
		{"1", 100},
		{"1.5", 150},
		{"199.90", 19990},
		{"1000.01", 100001},
		// a third fractional digit rounds half up
		{"1.005", 101},
		{"1.004", 100},
		{"1.009", 101},
	}
	for _, tc := range cases {
		got, err := DecimalToMinor(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestDecimalToMinorRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "-", "1,50"} {
		_, err := DecimalToMinor(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 19990, 100001} {
		got, err := DecimalToMinor(MinorToDecimal(minor))
		require.NoError(t, err)
		assert.Equal(t, minor, got)
	}
}
