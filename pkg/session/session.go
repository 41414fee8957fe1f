// Package session implements the session controller (C6): the per-tick
// driver that ties the codec, RX assembler, TX ring, sampler and transport
// together, grounded on spec.md §4.6 and original_source's
// emolog_embedded.c (emolog_init / emolog_run_step / emolog_handle_message).
package session

import (
	"github.com/emolog/emolog-client/pkg/protocol"
	"github.com/emolog/emolog-client/pkg/rxassembler"
	"github.com/emolog/emolog-client/pkg/sampler"
	"github.com/emolog/emolog-client/pkg/transport"
	"github.com/emolog/emolog-client/pkg/txring"
)

// respBufSize covers the largest non-sample response frame (VERSION, at
// HeaderSize+4). ACK is HeaderSize+3.
const respBufSize = protocol.HeaderSize + 4

// Session is the per-tick driver described in spec.md §4.6. It owns no
// bytes of its own beyond a small scratch buffer for VERSION/ACK replies;
// sample frames are assembled by the Sampler in its own scratch buffer and
// handed to the TX path through the enqueue closure the caller passed to
// sampler.New.
type Session struct {
	enc *protocol.Encoder
	rx  *rxassembler.Assembler
	sam *sampler.Sampler
	tx  *txring.Ring
	tr  transport.Transport
	app AppHandler

	respBuf [respBufSize]byte

	// OnDroppedResponse, if set, is called whenever an ACK or VERSION reply
	// could not be enqueued because the TX ring was full (spec.md §5's
	// "callers must treat this as a dropped frame").
	OnDroppedResponse func(msgType protocol.MessageType)
}

// New wires a Session from its collaborators. tr may be nil for tests that
// drive the sampler/codec without a real transport; PollStep is then simply
// skipped.
func New(rx *rxassembler.Assembler, sam *sampler.Sampler, tx *txring.Ring, tr transport.Transport, app AppHandler) *Session {
	if app == nil {
		app = DefaultAppHandler
	}
	return &Session{
		enc: protocol.NewEncoder(),
		rx:  rx,
		sam: sam,
		tx:  tx,
		tr:  tr,
		app: app,
	}
}

// Init resets the session to spec.md §4.6's documented initial state: zero
// sequence counter, CRC table ready, sampler stopped with an empty table.
// Transport setup is the caller's responsibility (the transport is already
// constructed and passed to New).
func (s *Session) Init() {
	protocol.InitCRCTable()
	s.enc = protocol.NewEncoder()
	s.sam.Clear()
}

// Encoder returns the session's shared Encoder, for wiring into a Sampler's
// enqueue closure or a demo app handler that needs to produce app-specific
// frames.
func (s *Session) Encoder() *protocol.Encoder { return s.enc }

// RunStep executes one driver tick per spec.md §4.6: sample first, then
// dispatch at most one pending inbound message, emit its mandatory
// response, and consume it.
func (s *Session) RunStep(ticks uint32) {
	if s.tr != nil {
		s.tr.PollStep()
	}

	s.sam.Sample(s.enc, ticks)

	msg, ok := s.rx.PeekMessage()
	if ok {
		hdr := protocol.ParseHeader(msg)
		payload := msg[protocol.HeaderSize : protocol.HeaderSize+int(hdr.Length)]

		switch hdr.Type {
		case protocol.MessageVersion:
			n := s.enc.EncodeVersion(s.respBuf[:], hdr.Seq)
			s.enqueue(s.respBuf[:n], hdr.Type)
		case protocol.MessagePing:
			s.ack(hdr.Seq, protocol.ErrorNone, hdr.Type)
		case protocol.MessageSamplerRegisterVariable:
			p := protocol.DecodeRegisterVariablePayload(msg)
			err := s.sam.RegisterVariable(p.Phase, p.Period, p.Address, p.Size)
			s.ack(hdr.Seq, err, hdr.Type)
		case protocol.MessageSamplerClear:
			s.sam.Clear()
			s.ack(hdr.Seq, protocol.ErrorNone, hdr.Type)
		case protocol.MessageSamplerStart:
			err := s.sam.Start(ticks)
			s.ack(hdr.Seq, err, hdr.Type)
		case protocol.MessageSamplerStop:
			s.sam.Stop()
			s.ack(hdr.Seq, protocol.ErrorNone, hdr.Type)
		default:
			err := s.app.HandleMessage(hdr.Type, payload)
			s.ack(hdr.Seq, err, hdr.Type)
		}

		s.rx.ConsumeMessage()
	}

	if s.tr != nil {
		s.tr.PollStep()
	}
}

func (s *Session) ack(replyToSeq uint8, err protocol.ErrorCode, origType protocol.MessageType) {
	n := s.enc.EncodeAck(s.respBuf[:], replyToSeq, err)
	s.enqueue(s.respBuf[:n], origType)
}

// enqueue hands frame to the transport's own Enqueue, which is the only
// path that actually drains bytes to the wire (each adapter's PollStep is
// RX-only or a no-op). Tests that drive the session without a transport
// pass tr == nil and fall back to writing tx directly.
func (s *Session) enqueue(frame []byte, origType protocol.MessageType) {
	var ok bool
	if s.tr != nil {
		ok = s.tr.Enqueue(frame)
	} else {
		ok = s.tx.Put(frame)
	}
	if ok {
		return
	}
	if s.OnDroppedResponse != nil {
		s.OnDroppedResponse(origType)
	}
}
