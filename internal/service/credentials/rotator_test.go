package credentials

import (
	"errors"
	"sync"
	"testing"
)

func TestRotatorRoundRobin(t *testing.T) {
	r, err := NewRotator([]string{"a", " ", "b", "c"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := []string{"a", "b", "c", "a", "b"}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("call %d = %q, want %q", i, got, w)
		}
	}
}

func TestRotatorRejectsEmpty(t *testing.T) {
	if _, err := NewRotator([]string{"", "  "}); !errors.Is(err, ErrNoKeys) {
		t.Fatalf("expected ErrNoKeys, got %v", err)
	}
}

func TestRotatorConcurrentSpread(t *testing.T) {
	r, _ := NewRotator([]string{"a", "b"})
	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := r.Next()
			mu.Lock()
			counts[k]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if counts["a"] != 50 || counts["b"] != 50 {
		t.Fatalf("uneven spread %v", counts)
	}
}
