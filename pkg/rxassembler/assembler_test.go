package rxassembler

import (
	"testing"

	"github.com/emolog/emolog-client/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	protocol.InitCRCTable()
}

func TestGarbageResyncByteAtATime(t *testing.T) {
	e := protocol.NewEncoder()
	buf := make([]byte, 64)
	n := e.EncodeVersion(buf, 0)
	frame := buf[:n]

	a := New(DefaultCapacity)
	stream := append([]byte{0xFF, 0x00, 0x45, 0x4D}, frame...)

	for _, b := range stream {
		a.Feed([]byte{b})
	}

	msg, ok := a.PeekMessage()
	require.True(t, ok)
	hdr := protocol.ParseHeader(msg)
	assert.Equal(t, protocol.MessageVersion, hdr.Type)
	v := protocol.DecodeVersionPayload(msg)
	assert.EqualValues(t, protocol.ProtocolVersion, v.ProtocolVersion)
}

func TestPartialFeedSequencing(t *testing.T) {
	e := protocol.NewEncoder()
	buf := make([]byte, 64)
	n := e.EncodeVersion(buf, 0)
	frame := buf[:n]

	a := New(DefaultCapacity)
	a.Feed(frame[:6])
	_, ok := a.PeekMessage()
	assert.False(t, ok)

	a.Feed(frame[6:7])
	_, ok = a.PeekMessage()
	assert.False(t, ok)

	a.Feed(frame[7:])
	msg, ok := a.PeekMessage()
	require.True(t, ok)
	assert.Equal(t, frame, msg)
}

func TestBackpressureWhileMessagePending(t *testing.T) {
	e := protocol.NewEncoder()
	buf := make([]byte, 64)
	n := e.EncodeSamplerClear(buf)
	frame := buf[:n]

	a := New(DefaultCapacity)
	var dropped int
	a.OnOverflow = func(d int) { dropped += d }

	a.Feed(frame)
	_, ok := a.PeekMessage()
	require.True(t, ok)

	a.Feed([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, 3, dropped)

	a.ConsumeMessage()
	_, ok = a.PeekMessage()
	assert.False(t, ok)
}

func TestOverflowDropsBeyondCapacity(t *testing.T) {
	a := New(4)
	var dropped int
	a.OnOverflow = func(d int) { dropped += d }
	a.Feed([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	assert.Equal(t, 2, dropped)
}

func TestConsumeThenAcceptsNewFrame(t *testing.T) {
	e := protocol.NewEncoder()
	buf1 := make([]byte, 64)
	n1 := e.EncodeSamplerStart(buf1)
	buf2 := make([]byte, 64)
	n2 := e.EncodeSamplerStop(buf2)

	a := New(DefaultCapacity)
	a.Feed(buf1[:n1])
	msg, ok := a.PeekMessage()
	require.True(t, ok)
	assert.Equal(t, protocol.MessageSamplerStart, protocol.ParseHeader(msg).Type)
	a.ConsumeMessage()

	a.Feed(buf2[:n2])
	msg, ok = a.PeekMessage()
	require.True(t, ok)
	assert.Equal(t, protocol.MessageSamplerStop, protocol.ParseHeader(msg).Type)
}
