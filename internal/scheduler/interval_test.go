package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1s", time.Second, true},
		{"1m", time.Minute, true},
		{"15m", 15 * time.Minute, true},
		{"1h", time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{" 5M ", 5 * time.Minute, true},
		{"", 0, false},
		{"m", 0, false},
		{"0m", 0, false},
		{"-1m", 0, false},
		{"1w", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseIntervalDuration(tc.in)
		assert.Equal(t, tc.ok, ok, "in=%q", tc.in)
		assert.Equal(t, tc.want, got, "in=%q", tc.in)
	}
}
