package lock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWithLockSerializes(t *testing.T) {
	m := New()
	var counter int
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = WithLock(context.Background(), m, func() (struct{}, error) {
				cur := counter
				time.Sleep(time.Microsecond)
				counter = cur + 1
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50 (lock did not serialize)", counter)
	}
}

func TestWithLockFIFOOrder(t *testing.T) {
	m := New()
	release, err := m.Lock(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			// stagger so goroutines queue roughly in i order
			time.Sleep(time.Duration(i) * 2 * time.Millisecond)
			_, _ = WithLock(context.Background(), m, func() (struct{}, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return struct{}{}, nil
			})
		}()
		time.Sleep(time.Millisecond)
	}

	time.Sleep(5 * time.Millisecond)
	release()
	wg.Wait()

	if len(order) != 5 {
		t.Fatalf("got %d completions, want 5", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want waiters served in arrival order [0 1 2 3 4]", order)
		}
	}
}

func TestLockContextCancel(t *testing.T) {
	m := New()
	release, err := m.Lock(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := m.Lock(ctx); err == nil {
		t.Fatal("expected context deadline error, got nil")
	}
}

func TestWithLockErrPropagates(t *testing.T) {
	m := New()
	wantErr := context.Canceled
	err := WithLockErr(context.Background(), m, func() error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
