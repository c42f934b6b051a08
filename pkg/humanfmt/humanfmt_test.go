package humanfmt

import (
	"testing"
	"time"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{1048576, "1.00 MiB"},
		{1073741824, "1.00 GiB"},
		{1610612736, "1.50 GiB"},
		{1099511627776, "1.00 TiB"},
	}

	for _, tt := range tests {
		got := Bytes(tt.input)
		if got != tt.want {
			t.Errorf("Bytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatGB(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "0.00"},
		{1, "0.00"},
		{1073741824, "1.00"},
		{2147483648, "2.00"},
		{1610612736, "1.50"},
		// exact ties round to even
		{134217728, "0.12"},
		{402653184, "0.38"},
		{671088640, "0.62"},
		// just below and above the first cent boundary
		{5368709, "0.00"},
		{5368710, "0.01"},
		{10737418240, "10.00"},
		{1099511627776, "1024.00"},
		{^uint64(0), "17179869184.00"},
	}

	for _, tt := range tests {
		got := FormatGB(tt.input)
		if got != tt.want {
			t.Errorf("FormatGB(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatUnit(t *testing.T) {
	tests := []struct {
		input uint64
		shift uint
		want  string
	}{
		{1024, 10, "1.00"},
		{1536, 10, "1.50"},
		{1048576, 20, "1.00"},
		{123456789, 20, "117.74"},
		{123456789, 30, "0.11"},
		{0, 20, "0.00"},
	}

	for _, tt := range tests {
		got := FormatUnit(tt.input, tt.shift)
		if got != tt.want {
			t.Errorf("FormatUnit(%d, %d) = %q, want %q", tt.input, tt.shift, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0ns"},
		{500 * time.Nanosecond, "500ns"},
		{1 * time.Microsecond, "1.0µs"},
		{1 * time.Millisecond, "1.0ms"},
		{1500 * time.Millisecond, "1.50s"},
		{59 * time.Second, "59.00s"},
		{60 * time.Second, "1m"},
		{90 * time.Second, "1m30s"},
		{3600 * time.Second, "1h"},
		{8100 * time.Second, "2h15m"},
	}

	for _, tt := range tests {
		got := Duration(tt.input)
		if got != tt.want {
			t.Errorf("Duration(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.00K"},
		{1500000, "1.50M"},
		{2000000000, "2.00B"},
	}

	for _, tt := range tests {
		got := Count(tt.input)
		if got != tt.want {
			t.Errorf("Count(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRowRate(t *testing.T) {
	if got := RowRate(1000, 0); got != "∞" {
		t.Errorf("RowRate(1000, 0) = %q, want ∞", got)
	}
	if got := RowRate(2000, time.Second); got != "2.00K rows/s" {
		t.Errorf("RowRate(2000, 1s) = %q, want 2.00K rows/s", got)
	}
}
