package memory

import "testing"

func TestRingPushPop(t *testing.T) {
	r := NewRing[int](4)

	if _, ok := r.Pop(); ok {
		t.Error("pop on empty ring should fail")
	}

	for i := 1; i <= 4; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if r.Push(5) {
		t.Error("push on full ring should fail")
	}
	if r.Len() != 4 {
		t.Errorf("Len = %d, want 4", r.Len())
	}

	for i := 1; i <= 4; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("pop = %d,%v, want %d,true", v, ok, i)
		}
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestRingWrapAround(t *testing.T) {
	r := NewRing[int](4)

	// Cycle more elements than the capacity to cross the wrap point.
	next := 0
	for i := 0; i < 100; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed", i)
		}
		v, ok := r.Pop()
		if !ok || v != next {
			t.Fatalf("pop = %d,%v, want %d,true", v, ok, next)
		}
		next++
	}
}

func TestRingRejectsBadSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-power-of-two size")
		}
	}()
	NewRing[int](3)
}

func TestRingCap(t *testing.T) {
	r := NewRing[string](8)
	if r.Cap() != 8 {
		t.Errorf("Cap = %d, want 8", r.Cap())
	}
}
