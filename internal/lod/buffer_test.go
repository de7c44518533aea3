package lod

import "testing"

func TestArrayExtend(t *testing.T) {
	var a Array[int]
	if realloc := a.Extend(10); !realloc {
		t.Fatal("first Extend should allocate")
	}
	if a.Len() != 10 || a.Cap() != 15 {
		t.Fatalf("after Extend(10): len %d cap %d, want 10 and 15", a.Len(), a.Cap())
	}

	for i := range a.Len() {
		a.Set(i, i+1)
	}

	// Fits in the current store: only the filled size moves.
	if realloc := a.Extend(5); realloc {
		t.Error("Extend within capacity should not reallocate")
	}
	if a.Len() != 15 || a.Cap() != 15 {
		t.Fatalf("after Extend(5): len %d cap %d, want 15 and 15", a.Len(), a.Cap())
	}
	for i := 10; i < 15; i++ {
		if a.At(i) != 0 {
			t.Errorf("exposed element %d = %d, want 0", i, a.At(i))
		}
	}

	// Exceeds the store: reallocate to 1.5x and keep content.
	if realloc := a.Extend(1); !realloc {
		t.Error("Extend past capacity should reallocate")
	}
	if a.Len() != 16 || a.Cap() != 24 {
		t.Fatalf("after Extend(1): len %d cap %d, want 16 and 24", a.Len(), a.Cap())
	}
	for i := range 10 {
		if a.At(i) != i+1 {
			t.Fatalf("element %d = %d after reallocation, want %d", i, a.At(i), i+1)
		}
	}
}

func TestArrayExtendZeroesReusedTail(t *testing.T) {
	a := newArray[int](8)
	for i := range a.Len() {
		a.Set(i, 7)
	}
	a.Truncate(6)
	a.Extend(2)
	if a.At(6) != 0 || a.At(7) != 0 {
		t.Errorf("reused tail = %d %d, want zeroes", a.At(6), a.At(7))
	}
}

func TestArrayExtendReleasesOversizedStore(t *testing.T) {
	a := newArray[int](100)
	a.Truncate(2)
	a.Set(1, 42)

	// cap 150 is more than twice the new size of 3.
	if realloc := a.Extend(1); !realloc {
		t.Fatal("oversized store should be reallocated")
	}
	if a.Cap() > 2*a.Len() {
		t.Errorf("cap %d still more than twice len %d", a.Cap(), a.Len())
	}
	if a.At(1) != 42 {
		t.Errorf("content lost on shrink: got %d", a.At(1))
	}
}

func TestArrayExtendNoop(t *testing.T) {
	a := newArray[int](4)
	for _, n := range []int{0, -3} {
		if a.Extend(n) {
			t.Errorf("Extend(%d) reallocated", n)
		}
	}
	if a.Len() != 4 {
		t.Errorf("len = %d, want 4", a.Len())
	}
}

func TestArrayReserveAndClone(t *testing.T) {
	a := newArray[int](4)
	a.Set(3, 9)
	a.Reserve(6)
	if a.Cap() < 6 || a.Len() != 4 {
		t.Fatalf("Reserve(6): len %d cap %d", a.Len(), a.Cap())
	}
	if realloc := a.Extend(2); realloc {
		t.Error("Extend into reserved space reallocated")
	}

	c := a.Clone()
	c.Set(3, 1)
	if a.At(3) != 9 {
		t.Error("Clone shares its store with the original")
	}
	if c.Len() != a.Len() {
		t.Errorf("clone len %d, want %d", c.Len(), a.Len())
	}
}
