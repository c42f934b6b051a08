// Package humanfmt formats byte counts, durations, and row rates for reports
// and operator-facing log lines.
package humanfmt

import (
	"fmt"
	"math/bits"
	"strconv"
	"time"
)

// Binary (IEC) units for bytes.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

// Bytes formats a byte count using IEC binary units (KiB, MiB, GiB, TiB).
func Bytes(b uint64) string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.2f TiB", float64(b)/TiB)
	case b >= GiB:
		return fmt.Sprintf("%.2f GiB", float64(b)/GiB)
	case b >= MiB:
		return fmt.Sprintf("%.2f MiB", float64(b)/MiB)
	case b >= KiB:
		return fmt.Sprintf("%.2f KiB", float64(b)/KiB)
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatGB renders b / 1024^3 with exactly two decimals.
//
// Rounding is half-to-even and is computed on integers, so totals beyond
// float64's exact range still round correctly: 1073741824 -> "1.00",
// 134217728 (0.125) -> "0.12", 402653184 (0.375) -> "0.38".
func FormatGB(b uint64) string {
	return formatHundredths(roundDiv(b, 100, 30))
}

// FormatUnit renders b / 1024^shift with two decimals, using the same
// rounding as FormatGB. shift is 10 for KB, 20 for MB, 30 for GB.
func FormatUnit(b uint64, shift uint) string {
	return formatHundredths(roundDiv(b, 100, shift))
}

// roundDiv returns round_half_even(b * mul / 2^shift) as a 128-bit-safe
// computation. The result saturates at MaxUint64.
func roundDiv(b, mul uint64, shift uint) uint64 {
	hi, lo := bits.Mul64(b, mul)
	if shift == 0 {
		if hi != 0 {
			return ^uint64(0)
		}
		return lo
	}

	q := lo>>shift | hi<<(64-shift)
	if hi>>shift != 0 {
		return ^uint64(0)
	}
	rem := lo & (1<<shift - 1)
	half := uint64(1) << (shift - 1)

	switch {
	case rem > half, rem == half && q&1 == 1:
		q++
	}
	return q
}

func formatHundredths(h uint64) string {
	frac := h % 100
	s := strconv.FormatUint(h/100, 10) + "."
	if frac < 10 {
		s += "0"
	}
	return s + strconv.FormatUint(frac, 10)
}

// Duration formats a duration compactly.
// Examples: "1.23s", "45.6ms", "789µs", "1m30s", "2h15m".
func Duration(d time.Duration) string {
	if d < 0 {
		return d.String()
	}

	switch {
	case d >= time.Hour:
		h := d / time.Hour
		m := (d % time.Hour) / time.Minute
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	case d >= time.Minute:
		m := d / time.Minute
		s := (d % time.Minute) / time.Second
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

// RowRate formats rows per second, e.g. "12.3K rows/s".
func RowRate(rows uint64, d time.Duration) string {
	if d <= 0 {
		return "∞"
	}
	return Count(uint64(float64(rows)/d.Seconds())) + " rows/s"
}

// Count formats a count with a metric suffix.
// Examples: "1.23M", "456.00K", "789".
func Count(n uint64) string {
	const (
		thousand = 1000
		million  = 1000 * thousand
		billion  = 1000 * million
	)

	switch {
	case n >= billion:
		return fmt.Sprintf("%.2fB", float64(n)/billion)
	case n >= million:
		return fmt.Sprintf("%.2fM", float64(n)/million)
	case n >= thousand:
		return fmt.Sprintf("%.2fK", float64(n)/thousand)
	default:
		return strconv.FormatUint(n, 10)
	}
}
