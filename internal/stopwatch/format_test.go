package stopwatch

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"zero", 0, "00:00.00"},
		{"hundredth", 10 * time.Millisecond, "00:00.01"},
		{"truncates below a hundredth", 9 * time.Millisecond, "00:00.00"},
		{"truncates not rounds", 1999 * time.Millisecond, "00:01.99"},
		{"minute and a bit", 61*time.Second + 256*time.Millisecond, "01:01.25"},
		{"last value before wrap", 59*time.Minute + 59*time.Second + 999*time.Millisecond, "59:59.99"},
		{"hour wraps", time.Hour, "00:00.00"},
		{"past the hour", time.Hour + 2*time.Minute + 3*time.Second + 40*time.Millisecond, "02:03.04"},
		{"negative clamps", -time.Second, "00:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00.00"},
		{61.256, "01:01.25"},
		{3600, "00:00.00"},
		{1.5, "00:01.50"},
		{2.25, "00:02.25"},
		{599.999, "09:59.99"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func BenchmarkFormat(b *testing.B) {
	d := 12*time.Minute + 34*time.Second + 560*time.Millisecond
	for i := 0; i < b.N; i++ {
		_ = Format(d)
	}
}
