package watcher

import (
	"testing"

	"capwatch/core"

	"github.com/stretchr/testify/require"
)

func TestGroupDigits(t *testing.T) {
	tests := map[float64]string{
		0:          "0",
		5:          "5",
		500:        "500",
		1500:       "1,500",
		1200000:    "1,200,000",
		999999999:  "999,999,999",
		1234.56:    "1,234",
		-1500:      "-1,500",
		-42:        "-42",
		-1234567.8: "-1,234,567",
	}

	for input, want := range tests {
		require.Equal(t, want, groupDigits(input), "input=%v", input)
	}
}

func TestFormatAlert(t *testing.T) {
	watch := core.NewWatch(42, "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	text := formatAlert(watch, 1234.5, core.LevelMid, "https://dexscreener.com/solana/pool")

	require.Contains(t, text, "`0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa`")
	require.Contains(t, text, "MCAP: *1,234* USD")
	require.Contains(t, text, "Level: *MID* (500/1,000/1,500)")
	require.Contains(t, text, "[Chart / Trade](https://dexscreener.com/solana/pool)")
}

func TestFormatAlert_FallbackURL(t *testing.T) {
	watch := core.NewWatch(42, "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	text := formatAlert(watch, 600, core.LevelLow, "")

	require.Contains(t, text, "(https://dexscreener.com/)")
}
