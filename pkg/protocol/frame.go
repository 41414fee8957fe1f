package protocol

import "encoding/binary"

// MessageType identifies the payload layout of a frame (spec.md §6).
type MessageType uint8

const (
	MessageVersion                 MessageType = 1
	MessagePing                    MessageType = 2
	MessageAck                     MessageType = 3
	MessageSamplerRegisterVariable MessageType = 4
	MessageSamplerClear            MessageType = 5
	MessageSamplerStart            MessageType = 6
	MessageSamplerStop             MessageType = 7
	MessageSamplerSample           MessageType = 8
)

// ErrorCode is the u16 carried in an ACK payload (spec.md §6/§7).
type ErrorCode uint16

const (
	ErrorNone                                   ErrorCode = 0
	ErrorGeneral                                ErrorCode = 1
	ErrorUnexpectedMessage                      ErrorCode = 2
	ErrorBadHeaderCRC                            ErrorCode = 3
	ErrorBadPayloadCRC                           ErrorCode = 4
	ErrorSamplerRegisterVariableSizeExceeded     ErrorCode = 5
	ErrorSamplerTableEmpty                       ErrorCode = 6
)

// ProtocolVersion is the version value carried in VERSION messages.
const ProtocolVersion uint16 = 1

// HeaderSize is the on-wire header length in bytes: start[2], type, length,
// seq, payload_crc, header_crc. See SPEC_FULL.md §0 for why this is 8 and
// not the 7 that spec.md's prose assumes.
const HeaderSize = 8

const (
	magicFirst  = 'E'
	magicSecond = 'M'
)

// headerCRCSpan is the number of leading header bytes that header_crc is
// computed over: every field except header_crc itself.
const headerCRCSpan = HeaderSize - 1

// Header is the 8-byte frame header, decoded in place from wire bytes.
type Header struct {
	Type       MessageType
	Length     uint16
	Seq        uint8
	PayloadCRC uint8
	HeaderCRC  uint8
}

// putHeader writes the 8-byte header into dest[0:HeaderSize], computing both
// CRCs. payload must already contain the Length bytes the header describes;
// it is not copied by putHeader — callers that build payload directly into
// dest[HeaderSize:] (as the sample encoder does) pass that same slice back
// in as payload.
func putHeader(dest []byte, typ MessageType, seq uint8, payload []byte) {
	dest[0] = magicFirst
	dest[1] = magicSecond
	dest[2] = byte(typ)
	binary.LittleEndian.PutUint16(dest[3:5], uint16(len(payload)))
	dest[5] = seq
	dest[6] = CRC8(payload)
	dest[7] = CRC8(dest[:headerCRCSpan])
}

// ParseHeader reads the header fields out of a buffer already known (by
// Decode) to hold a CRC-valid frame.
func ParseHeader(src []byte) Header {
	return Header{
		Type:       MessageType(src[2]),
		Length:     binary.LittleEndian.Uint16(src[3:5]),
		Seq:        src[5],
		PayloadCRC: src[6],
		HeaderCRC:  src[7],
	}
}
