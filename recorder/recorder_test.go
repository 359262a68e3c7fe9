package recorder

import (
	"errors"
	"testing"
)

func walk(n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{X: float64(i) * 0.1, Z: 1, Angle: float64(i * 5)}
	}
	return out
}

func TestLifeLogSealsOnDeath(t *testing.T) {
	l := NewLifeLog(0)
	for _, s := range walk(3) {
		if err := l.Append(s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if l.Sealed() {
		t.Fatal("log sealed before death")
	}

	if err := l.Append(Sample{X: 1, Died: true}); err != nil {
		t.Fatalf("Append death: %v", err)
	}
	if !l.Sealed() {
		t.Fatal("log not sealed after death sample")
	}
	if l.Len() != 4 {
		t.Errorf("Len = %d, want 4", l.Len())
	}

	err := l.Append(Sample{X: 2})
	if !errors.Is(err, ErrLogSealed) {
		t.Errorf("Append after seal = %v, want ErrLogSealed", err)
	}
	if l.Len() != 4 {
		t.Errorf("Len after rejected append = %d, want 4", l.Len())
	}
}

func TestLifeLogSamplesIsCopy(t *testing.T) {
	l := NewLifeLog(0)
	_ = l.Append(Sample{X: 1})

	s := l.Samples()
	s[0].X = 99

	if l.At(0).X != 1 {
		t.Error("mutating Samples() result changed the log")
	}
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name       string
		samples    []Sample
		wantSealed bool
		wantErr    bool
	}{
		{"empty", nil, false, false},
		{"open", walk(5), false, false},
		{"sealed", append(walk(5), Sample{Died: true}), true, false},
		{"death in middle", append(append(walk(2), Sample{Died: true}), walk(2)...), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Restore(3, tt.samples)
			if tt.wantErr {
				if !errors.Is(err, ErrLogSealed) {
					t.Fatalf("err = %v, want ErrLogSealed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Restore: %v", err)
			}
			if l.Sealed() != tt.wantSealed {
				t.Errorf("Sealed = %v, want %v", l.Sealed(), tt.wantSealed)
			}
			if l.Life() != 3 {
				t.Errorf("Life = %d, want 3", l.Life())
			}
			if l.Len() != len(tt.samples) {
				t.Errorf("Len = %d, want %d", l.Len(), len(tt.samples))
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	a := NewLifeLog(0)
	b := NewLifeLog(1)
	for _, s := range walk(10) {
		_ = a.Append(s)
		_ = b.Append(s)
	}

	if a.Checksum() != b.Checksum() {
		t.Error("identical paths produced different checksums")
	}

	_ = b.Append(Sample{Attacked: true})
	_ = a.Append(Sample{})
	if a.Checksum() == b.Checksum() {
		t.Error("attack flag did not change checksum")
	}
}

func TestRecorderLifecycle(t *testing.T) {
	r := New()
	if r.Current() != nil {
		t.Fatal("Current before Begin should be nil")
	}
	if err := r.Append(Sample{}); !errors.Is(err, ErrNoOpenLog) {
		t.Fatalf("Append before Begin = %v, want ErrNoOpenLog", err)
	}

	first, err := r.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if first.Life() != 0 {
		t.Errorf("first life = %d, want 0", first.Life())
	}

	if _, err := r.Begin(); !errors.Is(err, ErrLogOpen) {
		t.Fatalf("second Begin while open = %v, want ErrLogOpen", err)
	}

	_ = r.Append(Sample{X: 1})
	_ = r.Append(Sample{X: 2, Died: true})

	second, err := r.Begin()
	if err != nil {
		t.Fatalf("Begin after death: %v", err)
	}
	if second.Life() != 1 {
		t.Errorf("second life = %d, want 1", second.Life())
	}
	_ = r.Append(Sample{X: 3})

	sealed := r.Sealed()
	if len(sealed) != 1 || sealed[0] != first {
		t.Errorf("Sealed = %v, want only the first life", sealed)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	if got, ok := r.Life(1); !ok || got != second {
		t.Error("Life(1) did not return the second log")
	}
	if _, ok := r.Life(5); ok {
		t.Error("Life(5) should not exist")
	}
}
