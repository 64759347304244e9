// ABOUTME: Tests for the rolling byte window
// ABOUTME: Covers the capacity bound, tail ordering and exact front trimming
package ring

import (
	"bytes"
	"math/rand"
	"testing"
)

func seq(start, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(start + i)
	}
	return out
}

func TestBuffer_TrimScenario(t *testing.T) {
	b := New(100)

	first := seq(0, 60)
	second := seq(100, 60)
	b.Write(first)
	b.Write(second)

	if b.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", b.Len())
	}

	want := append(append([]byte(nil), first[20:]...), second...)
	if got := b.Snapshot(); !bytes.Equal(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestBuffer_UnderCapacity(t *testing.T) {
	b := New(10)
	b.Write([]byte{1, 2, 3})
	b.Write([]byte{4})

	if b.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", b.Len())
	}
	if got := b.Snapshot(); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("Snapshot() = %v", got)
	}
}

func TestBuffer_OversizedWrite(t *testing.T) {
	b := New(4)
	b.Write([]byte{9, 9})
	b.Write(seq(0, 10))

	if got := b.Snapshot(); !bytes.Equal(got, []byte{6, 7, 8, 9}) {
		t.Errorf("Snapshot() = %v, want [6 7 8 9]", got)
	}
}

func TestBuffer_EmptyWrite(t *testing.T) {
	b := New(4)
	b.Write(nil)
	b.Write([]byte{})

	if b.Len() != 0 {
		t.Errorf("Len() = %d after empty writes", b.Len())
	}
	if got := b.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v, want empty", got)
	}
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := New(8)
	b.Write([]byte{1, 2, 3})

	snap := b.Snapshot()
	b.Write([]byte{4, 5, 6, 7, 8, 9})

	if !bytes.Equal(snap, []byte{1, 2, 3}) {
		t.Errorf("snapshot changed after later writes: %v", snap)
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := New(8)
	b.Write(seq(0, 12))
	b.Reset()

	if b.Len() != 0 {
		t.Errorf("Len() = %d after Reset", b.Len())
	}
	b.Write([]byte{7})
	if got := b.Snapshot(); !bytes.Equal(got, []byte{7}) {
		t.Errorf("Snapshot() = %v after Reset+Write", got)
	}
}

// Compares against a naive append-and-trim model for random chunk sizes.
func TestBuffer_MatchesNaiveModel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, size := range []int{1, 7, 100, 1600} {
		b := New(size)
		var model []byte
		next := 0

		for i := 0; i < 500; i++ {
			chunk := seq(next, rng.Intn(size*2+1))
			next += len(chunk)

			b.Write(chunk)
			model = append(model, chunk...)
			if len(model) > size {
				model = model[len(model)-size:]
			}

			if b.Len() > b.Cap() {
				t.Fatalf("size %d step %d: Len() %d exceeds Cap() %d", size, i, b.Len(), b.Cap())
			}
			if got := b.Snapshot(); !bytes.Equal(got, model) {
				t.Fatalf("size %d step %d: snapshot diverged from model", size, i)
			}
		}
	}
}

func TestNew_MinimumSize(t *testing.T) {
	b := New(0)
	if b.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", b.Cap())
	}
}
