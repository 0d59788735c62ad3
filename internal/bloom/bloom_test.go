package bloom

import "testing"

func TestAddThenMayContain(t *testing.T) {
	f := New(1<<12, 4)
	f.Add([]byte("hello"))
	if !f.MayContain([]byte("hello")) {
		t.Fatalf("expected MayContain to return true for an added key")
	}
}

func TestMayContainFalseOnEmptyFilter(t *testing.T) {
	f := New(1<<12, 4)
	if f.MayContain([]byte("absent")) {
		t.Fatalf("expected a fresh filter to report absent for every key")
	}
}

func TestCountTracksAdds(t *testing.T) {
	f := New(1<<12, 4)
	f.Add([]byte("a"))
	f.Add([]byte("b"))
	if f.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", f.Count())
	}
}

func TestNewOptimalNeverFalseNegative(t *testing.T) {
	f := NewOptimal(1000, 0.01)
	for i := 0; i < 1000; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		f.Add(key)
	}
	for i := 0; i < 1000; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		if !f.MayContain(key) {
			t.Fatalf("false negative for key %v", key)
		}
	}
}

func TestNewDefaultsZeroArgs(t *testing.T) {
	f := New(0, 0)
	if len(f.bits) == 0 || f.k == 0 {
		t.Fatalf("expected New(0, 0) to fall back to sane defaults")
	}
}
