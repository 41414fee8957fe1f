package protocol

import "encoding/binary"

// Encoder owns the monotonically increasing sequence counter shared by every
// outgoing frame from a session. It is touched only from the session loop
// (spec.md §5), so it carries no internal locking.
type Encoder struct {
	seq uint8
}

// NewEncoder returns an Encoder with its sequence counter at zero.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Seq returns the next sequence number that will be assigned, without
// consuming it. Useful for tests asserting monotonicity.
func (e *Encoder) Seq() uint8 { return e.seq }

func (e *Encoder) nextSeq() uint8 {
	s := e.seq
	e.seq++
	return s
}

// EncodeVersion writes a VERSION frame into dest and returns the number of
// bytes written (header + payload). replyToSeq should be the seq of the
// triggering VERSION request, or 0 when initiating.
func (e *Encoder) EncodeVersion(dest []byte, replyToSeq uint8) int {
	payload := dest[HeaderSize : HeaderSize+4]
	binary.LittleEndian.PutUint16(payload[0:2], ProtocolVersion)
	payload[2] = replyToSeq
	payload[3] = 0
	putHeader(dest, MessageVersion, e.nextSeq(), payload)
	return HeaderSize + len(payload)
}

// EncodePing writes an empty-payload PING frame.
func (e *Encoder) EncodePing(dest []byte) int {
	return e.encodeEmpty(dest, MessagePing)
}

// EncodeAck writes an ACK frame carrying the error code for replyToSeq.
func (e *Encoder) EncodeAck(dest []byte, replyToSeq uint8, errCode ErrorCode) int {
	payload := dest[HeaderSize : HeaderSize+3]
	binary.LittleEndian.PutUint16(payload[0:2], uint16(errCode))
	payload[2] = replyToSeq
	putHeader(dest, MessageAck, e.nextSeq(), payload)
	return HeaderSize + len(payload)
}

// EncodeSamplerRegisterVariable writes a SAMPLER_REGISTER_VARIABLE frame.
func (e *Encoder) EncodeSamplerRegisterVariable(dest []byte, phase, period, address uint32, size uint16) int {
	payload := dest[HeaderSize : HeaderSize+16]
	binary.LittleEndian.PutUint32(payload[0:4], phase)
	binary.LittleEndian.PutUint32(payload[4:8], period)
	binary.LittleEndian.PutUint32(payload[8:12], address)
	binary.LittleEndian.PutUint16(payload[12:14], size)
	binary.LittleEndian.PutUint16(payload[14:16], 0)
	putHeader(dest, MessageSamplerRegisterVariable, e.nextSeq(), payload)
	return HeaderSize + len(payload)
}

// EncodeSamplerClear writes an empty-payload SAMPLER_CLEAR frame.
func (e *Encoder) EncodeSamplerClear(dest []byte) int {
	return e.encodeEmpty(dest, MessageSamplerClear)
}

// EncodeSamplerStart writes an empty-payload SAMPLER_START frame.
func (e *Encoder) EncodeSamplerStart(dest []byte) int {
	return e.encodeEmpty(dest, MessageSamplerStart)
}

// EncodeSamplerStop writes an empty-payload SAMPLER_STOP frame.
func (e *Encoder) EncodeSamplerStop(dest []byte) int {
	return e.encodeEmpty(dest, MessageSamplerStop)
}

func (e *Encoder) encodeEmpty(dest []byte, typ MessageType) int {
	putHeader(dest, typ, e.nextSeq(), dest[HeaderSize:HeaderSize])
	return HeaderSize
}

// SampleBuilder assembles a SAMPLER_SAMPLE frame directly into a
// caller-owned scratch buffer, avoiding an intermediate payload allocation.
// It replaces the original C API's module-scope start/add_var/end trio (see
// SPEC_FULL.md / DESIGN.md "Three-call sample encoder") with a value that
// owns its own scratch offset; overlapping use of two builders on the same
// buffer is the caller's responsibility to avoid, same as the original.
type SampleBuilder struct {
	dest   []byte
	offset int // write offset within dest, relative to HeaderSize+4 (past ticks field)
}

// BeginSample starts assembling a new sample frame into dest. dest must have
// room for HeaderSize + 4 (ticks) + however many variable bytes Add will
// append.
func BeginSample(dest []byte) *SampleBuilder {
	return &SampleBuilder{dest: dest}
}

// Add appends a variable's raw memory contents to the payload in table
// order.
func (s *SampleBuilder) Add(varBytes []byte) {
	start := HeaderSize + 4 + s.offset
	copy(s.dest[start:start+len(varBytes)], varBytes)
	s.offset += len(varBytes)
}

// Len reports how many variable bytes have been added so far.
func (s *SampleBuilder) Len() int { return s.offset }

// End finalises the frame with the given relative-ticks value and returns
// the total encoded length (header + ticks + variable bytes).
func (s *SampleBuilder) End(e *Encoder, ticks uint32) int {
	payload := s.dest[HeaderSize : HeaderSize+4+s.offset]
	binary.LittleEndian.PutUint32(payload[0:4], ticks)
	putHeader(s.dest, MessageSamplerSample, e.nextSeq(), payload)
	return HeaderSize + len(payload)
}

// VersionPayload holds decoded VERSION payload fields.
type VersionPayload struct {
	ProtocolVersion uint16
	ReplyToSeq      uint8
}

// DecodeVersionPayload reads a VERSION payload out of a CRC-valid frame.
func DecodeVersionPayload(frame []byte) VersionPayload {
	p := frame[HeaderSize : HeaderSize+4]
	return VersionPayload{
		ProtocolVersion: binary.LittleEndian.Uint16(p[0:2]),
		ReplyToSeq:      p[2],
	}
}

// AckPayload holds decoded ACK payload fields.
type AckPayload struct {
	Error      ErrorCode
	ReplyToSeq uint8
}

// DecodeAckPayload reads an ACK payload out of a CRC-valid frame.
func DecodeAckPayload(frame []byte) AckPayload {
	p := frame[HeaderSize : HeaderSize+3]
	return AckPayload{
		Error:      ErrorCode(binary.LittleEndian.Uint16(p[0:2])),
		ReplyToSeq: p[2],
	}
}

// RegisterVariablePayload holds decoded SAMPLER_REGISTER_VARIABLE fields.
type RegisterVariablePayload struct {
	Phase   uint32
	Period  uint32
	Address uint32
	Size    uint16
}

// DecodeRegisterVariablePayload reads a SAMPLER_REGISTER_VARIABLE payload
// out of a CRC-valid frame.
func DecodeRegisterVariablePayload(frame []byte) RegisterVariablePayload {
	p := frame[HeaderSize : HeaderSize+16]
	return RegisterVariablePayload{
		Phase:   binary.LittleEndian.Uint32(p[0:4]),
		Period:  binary.LittleEndian.Uint32(p[4:8]),
		Address: binary.LittleEndian.Uint32(p[8:12]),
		Size:    binary.LittleEndian.Uint16(p[12:14]),
	}
}

// SampleTicks reads the ticks field out of a SAMPLER_SAMPLE frame's payload.
func SampleTicks(frame []byte) uint32 {
	return binary.LittleEndian.Uint32(frame[HeaderSize : HeaderSize+4])
}

// SampleVars returns the variable-bytes region of a SAMPLER_SAMPLE frame,
// following the ticks field.
func SampleVars(frame []byte, length uint16) []byte {
	return frame[HeaderSize+4 : HeaderSize+int(length)]
}
