package ratelimit

import (
	"testing"
	"time"
)

func TestIntervalAllow(t *testing.T) {
	in := NewInterval(200 * time.Millisecond)

	// First request always proceeds
	if !in.Allow() {
		t.Error("Expected first request to be allowed")
	}

	// Second request inside the delay window is denied
	if in.Allow() {
		t.Error("Expected request inside the delay window to be denied")
	}

	// After the delay has elapsed the next request proceeds
	time.Sleep(250 * time.Millisecond)
	if !in.Allow() {
		t.Error("Expected request to be allowed after the delay elapsed")
	}
}

func TestIntervalWait(t *testing.T) {
	in := NewInterval(150 * time.Millisecond)

	in.Wait() // first call returns immediately

	start := time.Now()
	in.Wait()
	elapsed := time.Since(start)

	if elapsed < 150*time.Millisecond {
		t.Errorf("Expected second Wait to block for at least the delay, blocked %v", elapsed)
	}
}

func TestIntervalZeroDelay(t *testing.T) {
	in := NewInterval(0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		in.Wait()
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Expected zero-delay limiter to never block, blocked %v", elapsed)
	}
}

func TestIntervalNegativeDelayClamped(t *testing.T) {
	in := NewInterval(-time.Second)

	if in.Delay() != 0 {
		t.Errorf("Expected negative delay to be clamped to zero, got %v", in.Delay())
	}

	if !in.Allow() {
		t.Error("Expected request to be allowed with clamped delay")
	}
	if !in.Allow() {
		t.Error("Expected consecutive request to be allowed with clamped delay")
	}
}

func TestIntervalReset(t *testing.T) {
	in := NewInterval(time.Second)

	if !in.Allow() {
		t.Error("Expected first request to be allowed")
	}
	if in.Allow() {
		t.Error("Expected request inside the delay window to be denied")
	}

	in.Reset()
	if !in.Allow() {
		t.Error("Expected request to be allowed after reset")
	}
}
