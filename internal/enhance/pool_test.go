package enhance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMapOrderedPreservesOrder(t *testing.T) {
	t.Parallel()

	p := NewPool(4)
	defer p.Close()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	// Stagger completion so results finish out of submission order.
	out, err := MapOrdered(context.Background(), p, items, func(_ context.Context, i int, v int) (int, error) {
		time.Sleep(time.Duration((50-i)%5) * time.Millisecond)
		return v * 2, nil
	})
	if err != nil {
		t.Fatalf("MapOrdered: %v", err)
	}
	if len(out) != len(items) {
		t.Fatalf("result length: got %d, want %d", len(out), len(items))
	}
	for i, v := range out {
		if v != i*2 {
			t.Errorf("out[%d]: got %d, want %d", i, v, i*2)
		}
	}
}

func TestMapOrderedFirstErrorFailsWhole(t *testing.T) {
	t.Parallel()

	p := NewPool(4)
	defer p.Close()

	boom := errors.New("boom")
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}

	out, err := MapOrdered(context.Background(), p, items, func(_ context.Context, i int, v int) (int, error) {
		if i == 5 {
			return 0, boom
		}
		return v, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error: got %v, want %v", err, boom)
	}
	if out != nil {
		t.Errorf("expected nil result on failure, got %v", out)
	}
}

func TestMapOrderedReusedAcrossBatches(t *testing.T) {
	t.Parallel()

	p := NewPool(2)
	defer p.Close()

	for batch := 0; batch < 3; batch++ {
		items := []int{10, 20, 30}
		out, err := MapOrdered(context.Background(), p, items, func(_ context.Context, _ int, v int) (int, error) {
			return v + batch, nil
		})
		if err != nil {
			t.Fatalf("batch %d: %v", batch, err)
		}
		for i, v := range out {
			if v != items[i]+batch {
				t.Errorf("batch %d out[%d]: got %d, want %d", batch, i, v, items[i]+batch)
			}
		}
	}
}

func TestMapOrderedContextCancelled(t *testing.T) {
	t.Parallel()

	p := NewPool(2)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	_, err := MapOrdered(ctx, p, []int{1, 2, 3}, func(_ context.Context, _ int, v int) (int, error) {
		calls++
		return v, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error: got %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("fn ran %d times under a cancelled context", calls)
	}
}

func TestPoolSize(t *testing.T) {
	t.Parallel()

	p := NewPool(30)
	defer p.Close()
	if p.Size() != 30 {
		t.Errorf("Size: got %d, want 30", p.Size())
	}
}
