package backoff_test

import (
	"testing"
	"time"

	"github.com/Arch199/crontrack/backoff"
)

func TestConstant(t *testing.T) {
	c := backoff.NewConstant(2 * time.Second)
	for _, attempt := range []int{1, 2, 10} {
		if d := c.Delay(attempt); d != 2*time.Second {
			t.Errorf("Delay(%d) = %v, want 2s", attempt, d)
		}
	}
}

func TestExponential(t *testing.T) {
	e := backoff.NewExponential(time.Second, 10*time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		if d := e.Delay(tt.attempt); d != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, d, tt.want)
		}
	}
}

func TestExponentialNoCap(t *testing.T) {
	e := backoff.NewExponential(time.Second, 0)
	if d := e.Delay(6); d != 32*time.Second {
		t.Errorf("Delay(6) = %v, want 32s", d)
	}
}

func TestExponentialWithJitterBounds(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, 8*time.Second)

	for attempt := 1; attempt <= 6; attempt++ {
		ceiling := time.Duration(1<<uint(attempt-1)) * time.Second
		if ceiling > 8*time.Second {
			ceiling = 8 * time.Second
		}
		for range 50 {
			d := e.Delay(attempt)
			if d < 0 || d > ceiling {
				t.Fatalf("Delay(%d) = %v outside [0, %v]", attempt, d, ceiling)
			}
		}
	}
}

func TestDefault(t *testing.T) {
	s := backoff.Default()
	if d := s.Delay(1); d < 0 || d > 10*time.Second {
		t.Errorf("Delay(1) = %v outside default bounds", d)
	}
}
