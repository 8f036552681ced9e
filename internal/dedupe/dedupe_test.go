package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSeenRegistersOnFirstSight(t *testing.T) {
	d := New(time.Minute)
	defer d.Stop()

	if d.Seen("s1") {
		t.Error("fresh id reported as seen")
	}
	if !d.Seen("s1") {
		t.Error("repeated id inside window not reported as seen")
	}
	if d.Seen("s2") {
		t.Error("distinct id reported as seen")
	}
}

func TestSeenExpiresAfterWindow(t *testing.T) {
	d := New(time.Minute)
	defer d.Stop()

	current := time.Now()
	d.now = func() time.Time { return current }

	if d.Seen("s1") {
		t.Fatal("fresh id reported as seen")
	}
	current = current.Add(time.Minute + time.Second)
	if d.Seen("s1") {
		t.Error("id still seen after window elapsed")
	}
	// Re-registration restarts the window.
	if !d.Seen("s1") {
		t.Error("id not re-registered after expiry")
	}
}

func TestEmptyIDNeverDedupes(t *testing.T) {
	d := New(time.Minute)
	defer d.Stop()

	if d.Seen("") || d.Seen("") {
		t.Error("empty submission id must never be treated as duplicate")
	}
	if d.Len() != 0 {
		t.Errorf("empty id was registered, len = %d", d.Len())
	}
}

func TestConcurrentFirstSight(t *testing.T) {
	d := New(time.Minute)
	defer d.Stop()

	const n = 32
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !d.Seen("same") {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	if firsts.Load() != 1 {
		t.Fatalf("%d callers saw the id as fresh, want exactly 1", firsts.Load())
	}
}
