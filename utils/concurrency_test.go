package utils

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	if !s.Add("sku-1") {
		t.Error("first Add should return true")
	}
	if s.Add("sku-1") {
		t.Error("second Add of same key should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() error {
			if s.Add("https://shop.example/p/same") {
				atomic.AddInt64(&added, 1)
			}
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	pool := NewWorkerPool(3, 0)
	boom := errors.New("boom")

	for i := 0; i < 6; i++ {
		i := i
		pool.Submit(func() error {
			if i%2 == 0 {
				return boom
			}
			return nil
		})
	}

	err := pool.Wait()
	if !errors.Is(err, boom) {
		t.Errorf("expected joined boom error, got %v", err)
	}
	if err := pool.Wait(); err != nil {
		t.Errorf("second Wait should start clean, got %v", err)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimit := 50 * time.Millisecond
	pool := NewWorkerPool(1, rateLimit)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() error {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
			return nil
		})
	}
	_ = pool.Wait()

	// job timestamps trail the limiter slightly
	min := rateLimit - 5*time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i].Sub(timestamps[i-1]); gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}
