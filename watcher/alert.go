package watcher

import (
	"fmt"
	"strconv"
	"strings"

	"capwatch/core"
)

const fallbackPairURL = "https://dexscreener.com/"

// formatAlert builds the Markdown alert message for an upward level crossing
func formatAlert(watch *core.Watch, marketCap float64, level core.Level, pairURL string) string {
	if pairURL == "" {
		pairURL = fallbackPairURL
	}

	return fmt.Sprintf(
		"📈 *Market cap threshold crossed!*\n"+
			"`%s`\n"+
			"MCAP: *%s* USD\n"+
			"Level: *%s* (%s/%s/%s)\n"+
			"[Chart / Trade](%s)",
		watch.Contract,
		groupDigits(marketCap),
		strings.ToUpper(string(level)),
		groupDigits(watch.ThresholdLow),
		groupDigits(watch.ThresholdMid),
		groupDigits(watch.ThresholdHigh),
		pairURL,
	)
}

// groupDigits renders a value as a whole number with thousands separators
func groupDigits(v float64) string {
	s := strconv.FormatInt(int64(v), 10)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}

	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
