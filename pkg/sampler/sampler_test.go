package sampler

import (
	"testing"

	"github.com/emolog/emolog-client/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func init() {
	protocol.InitCRCTable()
}

func newTestSampler(t *testing.T, mem MemoryReader) (*Sampler, *protocol.Encoder, *[][]byte) {
	t.Helper()
	var frames [][]byte
	s := New(mem, func(frame []byte) bool {
		frames = append(frames, append([]byte{}, frame...))
		return true
	})
	return s, protocol.NewEncoder(), &frames
}

func TestScheduleSelection(t *testing.T) {
	x := []byte{0xAB}
	mem := NewSimMemory(0x2000, x)
	s, enc, frames := newTestSampler(t, mem)

	require.Equal(t, protocol.ErrorNone, s.RegisterVariable(0, 3, 0x2000, 1))
	require.Equal(t, protocol.ErrorNone, s.Start(100))

	var firedAt []uint32
	for tick := uint32(100); tick <= 106; tick++ {
		before := len(*frames)
		s.Sample(enc, tick)
		if len(*frames) > before {
			firedAt = append(firedAt, tick)
		}
	}
	assert.Equal(t, []uint32{100, 103, 106}, firedAt)

	for i, tick := range firedAt {
		frame := (*frames)[i]
		assert.EqualValues(t, tick-100, protocol.SampleTicks(frame))
	}
}

func TestTableOverflow(t *testing.T) {
	s, _, _ := newTestSampler(t, NewSimMemory(0, make([]byte, 4)))
	for i := 0; i < MaxVars; i++ {
		require.Equal(t, protocol.ErrorNone, s.RegisterVariable(0, 1, 0, 1))
	}
	assert.Equal(t, protocol.ErrorSamplerRegisterVariableSizeExceeded, s.RegisterVariable(0, 1, 0, 1))
	assert.Equal(t, MaxVars, s.Size())
}

func TestStartWithoutTable(t *testing.T) {
	s, _, _ := newTestSampler(t, NewSimMemory(0, nil))
	assert.Equal(t, protocol.ErrorSamplerTableEmpty, s.Start(0))
	assert.False(t, s.Running())
}

func TestClearStopsAndEmpties(t *testing.T) {
	s, _, _ := newTestSampler(t, NewSimMemory(0, make([]byte, 4)))
	require.Equal(t, protocol.ErrorNone, s.RegisterVariable(0, 1, 0, 1))
	require.Equal(t, protocol.ErrorNone, s.Start(0))
	s.Clear()
	assert.False(t, s.Running())
	assert.Equal(t, 0, s.Size())
}

func TestNoMatchEmitsNothing(t *testing.T) {
	s, enc, frames := newTestSampler(t, NewSimMemory(0, make([]byte, 4)))
	require.Equal(t, protocol.ErrorNone, s.RegisterVariable(1, 5, 0, 1)) // phase=1, period=5
	require.Equal(t, protocol.ErrorNone, s.Start(0))
	s.Sample(enc, 0) // relative=0, 0%5=0 != phase 1
	assert.Empty(t, *frames)
}

func TestDroppedSampleOnFullTX(t *testing.T) {
	mem := NewSimMemory(0x10, []byte{1, 2, 3, 4})
	s := New(mem, func(frame []byte) bool { return false })
	enc := protocol.NewEncoder()
	dropped := 0
	s.OnDroppedSample = func() { dropped++ }

	require.Equal(t, protocol.ErrorNone, s.RegisterVariable(0, 1, 0x10, 4))
	require.Equal(t, protocol.ErrorNone, s.Start(0))
	s.Sample(enc, 0)
	assert.Equal(t, 1, dropped)
}

func TestMultiVariableOrderPreserved(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	mem := NewSimMemory(0, data)
	s, enc, frames := newTestSampler(t, mem)

	require.Equal(t, protocol.ErrorNone, s.RegisterVariable(0, 1, 0, 2)) // bytes 0,1
	require.Equal(t, protocol.ErrorNone, s.RegisterVariable(0, 1, 4, 2)) // bytes 4,5
	require.Equal(t, protocol.ErrorNone, s.Start(0))
	s.Sample(enc, 0)

	require.Len(t, *frames, 1)
	hdr := protocol.ParseHeader((*frames)[0])
	vars := protocol.SampleVars((*frames)[0], hdr.Length)
	assert.Equal(t, []byte{1, 2, 5, 6}, vars)
}

// TestPropertySelectionLaw is spec.md §8 property 6.
func TestPropertySelectionLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phase := rapid.Uint32Range(0, 20).Draw(t, "phase")
		period := rapid.Uint32Range(1, 20).Draw(t, "period")
		start := rapid.Uint32().Draw(t, "start")
		n := rapid.IntRange(0, 60).Draw(t, "n")

		mem := NewSimMemory(0, []byte{0xFF})
		s, enc, frames := newTestSampler(t, mem)
		_ = s.RegisterVariable(phase, period, 0, 1)
		if s.Start(start) != protocol.ErrorNone {
			t.Fatalf("start failed unexpectedly")
		}

		for i := 0; i <= n; i++ {
			tick := start + uint32(i)
			before := len(*frames)
			s.Sample(enc, tick)
			fired := len(*frames) > before
			want := period == 1 || uint32(i)%period == phase
			if fired != want {
				t.Fatalf("tick %d (relative %d): fired=%v want=%v", tick, i, fired, want)
			}
		}
	})
}
