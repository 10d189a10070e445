package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatNumber formats an integer with comma separators.
// Example: 12345678 → "12,345,678".
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatMetric formats a metric value. Whole numbers get comma separators;
// fractional values keep up to two decimals.
// Example: 1204 → "1,204", 3.14159 → "3.14".
// NaN and infinities return "---".
func FormatMetric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "---"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return humanize.Comma(int64(v))
	}
	return humanize.CommafWithDigits(v, 2)
}

// FormatCompact formats a count for narrow cards using SI suffixes above
// 9,999, rounded to one decimal. Example: 123456 → "123.5k", 2000000 → "2M".
func FormatCompact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "---"
	}
	if math.Abs(v) < 10000 {
		return FormatMetric(math.Round(v))
	}
	val, prefix := humanize.ComputeSI(v)
	val = math.Round(val*10) / 10
	// 999,960 rounds up into the next prefix.
	if math.Abs(val) >= 1000 {
		val, prefix = humanize.ComputeSI(math.Copysign(1000, val) * math.Pow(10, siExponent(prefix)))
	}
	return strings.TrimSuffix(strconv.FormatFloat(val, 'f', 1, 64), ".0") + prefix
}

// siExponent returns the power of ten of an SI prefix from humanize.ComputeSI.
func siExponent(prefix string) float64 {
	i := strings.Index("kMGTPEZY", prefix)
	if prefix == "" || i < 0 {
		return 0
	}
	return float64(3 * (i + 1))
}

// FormatPercent formats a percentage with one decimal place.
// Example: 34.5 → "34.5%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatAge describes how long ago t was, relative to now.
// Example: "3 seconds ago". A zero t returns "never".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if !t.Before(now) {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
