package performance

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
	"optionflow/internal/pricing"
)

func defaultParams() models.OptionParameters {
	return models.OptionParameters{Spot: 100, Strike: 100, TimeToExpiry: 120.0 / 365.0, RiskFreeRate: 0.0365, Volatility: 0.25}
}

// BenchmarkWorkerPool benchmarks the worker pool performance.
func BenchmarkWorkerPool(b *testing.B) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	p := defaultParams()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var wg sync.WaitGroup
		wg.Add(1)
		pool.Submit(func() {
			pricing.Price(p)
			wg.Done()
		})
		wg.Wait()
	}
}

// BenchmarkEvaluateLadder benchmarks a 201-strike ladder.
func BenchmarkEvaluateLadder(b *testing.B) {
	pool := NewWorkerPool(0)
	pool.Start()
	defer pool.Stop()

	strikes, _ := StrikeLadder(50, 150, 0.5)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EvaluateLadder(ctx, pool, defaultParams(), strikes); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRateLimiter benchmarks the rate limiter.
func BenchmarkRateLimiter(b *testing.B) {
	limiter := NewRateLimiter(10000, 100) // 10k requests/sec

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow()
	}
}

// TestWorkerPoolFunctionality tests worker pool basic functionality.
func TestWorkerPoolFunctionality(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()

	var counter int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		submitted := pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
			wg.Done()
		})
		if !submitted {
			wg.Done() // Decrement if not submitted
		}
	}

	// Wait with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for tasks to complete")
	}

	pool.Stop()

	if counter != 100 {
		t.Errorf("Expected 100 tasks completed, got %d", counter)
	}

	stats := pool.Stats()
	if stats.Running || stats.TasksTotal != 100 {
		t.Errorf("unexpected stats after stop: %+v", stats)
	}
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Stop()
	pool.Stop() // idempotent

	if pool.Submit(func() {}) {
		t.Error("Submit should fail on a stopped pool")
	}
	if err := pool.SubmitContext(context.Background(), func() {}); err != ErrPoolStopped {
		t.Errorf("SubmitContext error = %v, want ErrPoolStopped", err)
	}
}

func TestWorkerPool_SubmitContextCancelled(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Stop()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker and fill the queue.
	if err := pool.SubmitContext(context.Background(), func() { <-block }); err != nil {
		t.Fatal(err)
	}
	for pool.Submit(func() {}) {
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.SubmitContext(ctx, func() {}); err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded on a full queue, got %v", err)
	}
}

// TestRateLimiterFunctionality tests rate limiter basic functionality.
func TestRateLimiterFunctionality(t *testing.T) {
	limiter := NewRateLimiter(100, 10) // 100 requests/sec, burst of 10

	// Should allow burst
	allowed := 0
	for i := 0; i < 15; i++ {
		if limiter.Allow() {
			allowed++
		}
	}

	if allowed < 10 {
		t.Errorf("Expected at least 10 allowed in burst, got %d", allowed)
	}

	// Wait for refill
	time.Sleep(100 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("Expected to allow after refill")
	}
}

// TestMemoryStats tests memory stats retrieval.
func TestMemoryStats(t *testing.T) {
	stats := MemoryStats()

	if stats.Alloc == 0 {
		t.Error("Expected non-zero Alloc")
	}
	if stats.Goroutines == 0 {
		t.Error("Expected non-zero Goroutines")
	}
}

func TestStrikeLadder(t *testing.T) {
	strikes, err := StrikeLadder(95, 105, 2.5)
	if err != nil {
		t.Fatalf("StrikeLadder returned error: %v", err)
	}
	want := []float64{95, 97.5, 100, 102.5, 105}
	if len(strikes) != len(want) {
		t.Fatalf("got %v, want %v", strikes, want)
	}
	for i := range want {
		if strikes[i] != want[i] {
			t.Errorf("strikes[%d] = %v, want %v", i, strikes[i], want[i])
		}
	}

	// Decimal stepping lands exactly on the upper bound.
	fine, err := StrikeLadder(1, 2, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(fine) != 11 || fine[10] != 2 || fine[3] != 1.3 {
		t.Errorf("fine ladder = %v", fine)
	}
}

func TestStrikeLadder_Invalid(t *testing.T) {
	tests := []struct {
		name           string
		from, to, step float64
		field          string
	}{
		{"zero from", 0, 10, 1, "from"},
		{"inverted", 100, 90, 1, "to"},
		{"zero step", 90, 100, 0, "step"},
		{"too many", 1, 1000, 0.01, "step"},
		{"infinite to", 1, math.Inf(1), 1, "to"},
		{"NaN from", math.NaN(), 10, 1, "from"},
		{"infinite step", 1, 10, math.Inf(1), "step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StrikeLadder(tt.from, tt.to, tt.step)
			var verr *apperrors.ValidationError
			if !apperrors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestEvaluateLadder(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	base := defaultParams()
	strikes, _ := StrikeLadder(80, 120, 5)

	rows, err := EvaluateLadder(context.Background(), pool, base, strikes)
	if err != nil {
		t.Fatalf("EvaluateLadder returned error: %v", err)
	}
	if len(rows) != len(strikes) {
		t.Fatalf("expected %d rows, got %d", len(strikes), len(rows))
	}

	for i, row := range rows {
		if row.Strike != strikes[i] {
			t.Errorf("row %d strike = %v, want %v", i, row.Strike, strikes[i])
		}
		p := base
		p.Strike = row.Strike
		want, _ := pricing.Price(p)
		if row.Result != want {
			t.Errorf("row %d differs from a direct evaluation", i)
		}
		if i > 0 && row.Result.CallPrice >= rows[i-1].Result.CallPrice {
			t.Errorf("call price should fall as strike rises (row %d)", i)
		}
	}

	if rows[0].Moneyness != models.InTheMoney || rows[4].Moneyness != models.AtTheMoney || rows[8].Moneyness != models.OutOfTheMoney {
		t.Errorf("unexpected moneyness: %s %s %s", rows[0].Moneyness, rows[4].Moneyness, rows[8].Moneyness)
	}
}

func TestEvaluateLadder_InvalidBase(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Stop()

	base := defaultParams()
	base.Spot = -1
	if _, err := EvaluateLadder(context.Background(), pool, base, []float64{100}); !apperrors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestEvaluateLadder_StoppedPool(t *testing.T) {
	pool := NewWorkerPool(2)

	_, err := EvaluateLadder(context.Background(), pool, defaultParams(), []float64{90, 100})
	if err == nil {
		t.Error("expected an error from a pool that was never started")
	}
}

func TestWorkerPool_StopDrainsQueue(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()

	release := make(chan struct{})
	pool.Submit(func() { <-release })

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		if !pool.Submit(func() { ran.Add(1) }) {
			t.Fatal("Submit rejected a task")
		}
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	close(release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	if ran.Load() != 10 {
		t.Errorf("queued tasks run = %d, want 10", ran.Load())
	}
}

func TestEvaluateLadder_PoolStoppedMidLadder(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()

	release := make(chan struct{})
	pool.Submit(func() { <-release })

	done := make(chan error, 1)
	go func() {
		_, err := EvaluateLadder(context.Background(), pool, defaultParams(), []float64{90, 95, 100, 105, 110})
		done <- err
	}()
	go pool.Stop()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("EvaluateLadder hung after the pool stopped")
	}
}
