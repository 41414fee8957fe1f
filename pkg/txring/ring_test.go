package txring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPutAndDrainRoundTrip(t *testing.T) {
	r := New(16)
	ok := r.Put([]byte("hello"))
	require.True(t, ok)
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 11, r.Free())

	var out []byte
	n := r.Drain(func(b byte) bool {
		out = append(out, b)
		return true
	})
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(out))
	assert.True(t, r.IsEmpty())
}

func TestPutFailsAtomically(t *testing.T) {
	r := New(4)
	require.True(t, r.Put([]byte{1, 2, 3}))
	freeBefore := r.Free()
	lenBefore := r.Len()

	ok := r.Put([]byte{4, 5}) // only 1 byte free, asking for 2
	assert.False(t, ok)
	assert.Equal(t, freeBefore, r.Free())
	assert.Equal(t, lenBefore, r.Len())
}

func TestWrapAroundPreservesOrder(t *testing.T) {
	r := New(4)
	require.True(t, r.Put([]byte{1, 2, 3}))
	// Drain only two bytes: a full drain would reset both cursors to 0.
	allowed := 2
	drained := r.Drain(func(b byte) bool {
		if allowed == 0 {
			return false
		}
		allowed--
		return true
	})
	require.Equal(t, 2, drained)
	require.True(t, r.Put([]byte{4, 5, 6})) // 4 at index 3; 5 and 6 wrap to indices 0 and 1

	var out []byte
	r.Drain(func(b byte) bool {
		out = append(out, b)
		return true
	})
	assert.Equal(t, []byte{3, 4, 5, 6}, out)
}

func TestDrainStopsWhenWriterBalks(t *testing.T) {
	r := New(8)
	require.True(t, r.Put([]byte{1, 2, 3, 4}))
	allowed := 2
	n := r.Drain(func(b byte) bool {
		if allowed == 0 {
			return false
		}
		allowed--
		return true
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, r.Len())
}

// --- properties (spec.md §8.7-8) ---

func TestPropertyAtomicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(1, 64).Draw(t, "cap")
		r := New(cap)
		prefill := rapid.IntRange(0, cap).Draw(t, "prefill")
		if prefill > 0 {
			r.Put(make([]byte, prefill))
		}

		freeBefore, lenBefore := r.Free(), r.Len()
		n := rapid.IntRange(0, cap+4).Draw(t, "n")
		ok := r.Put(make([]byte, n))

		if ok {
			if r.Len() != lenBefore+n {
				t.Fatalf("len after successful put: got %d want %d", r.Len(), lenBefore+n)
			}
			if r.Free() != freeBefore-n {
				t.Fatalf("free after successful put: got %d want %d", r.Free(), freeBefore-n)
			}
		} else {
			if r.Len() != lenBefore || r.Free() != freeBefore {
				t.Fatalf("failed put mutated ring state: len %d->%d free %d->%d", lenBefore, r.Len(), freeBefore, r.Free())
			}
		}
	})
}

func TestPropertyWrapAroundPreservesBytes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(1, 32).Draw(t, "cap")
		r := New(cap)
		var expected []byte
		var actual []byte

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Boolean().Draw(t, "doWrite") {
				n := rapid.IntRange(0, cap).Draw(t, "n")
				chunk := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "chunk")
				if r.Put(chunk) {
					expected = append(expected, chunk...)
				}
			} else {
				r.Drain(func(b byte) bool {
					actual = append(actual, b)
					return true
				})
			}
		}
		r.Drain(func(b byte) bool {
			actual = append(actual, b)
			return true
		})
		if string(actual) != string(expected) {
			t.Fatalf("drained bytes do not match written order:\n got: %v\nwant: %v", actual, expected)
		}
	})
}
