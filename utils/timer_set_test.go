package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerSet_Debounce(t *testing.T) {
	ts := NewTimerSet[string]()
	var calls int32

	for i := 0; i < 5; i++ {
		ts.Set("reload", 30*time.Millisecond, func(string) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}
	time.Sleep(150 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestTimerSet_Stop(t *testing.T) {
	ts := NewTimerSet[string]()
	var calls int32

	ts.Set("reload", 30*time.Millisecond, func(string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	ts.Stop("reload")
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("calls = %d, want 0", got)
	}
}
