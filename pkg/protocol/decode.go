package protocol

import "encoding/binary"

// Decode attempts to recover one frame from the leading bytes of src, which
// holds size valid bytes. It never looks past size.
//
// Return value (spec.md §4.2):
//
//	 0  a CRC-valid frame occupies src[0:HeaderSize+length]
//	>0  need that many more bytes before trying again
//	<0  skip that many bytes (resync) and try again
//
// On a payload CRC mismatch, Decode skips only the header (-HeaderSize),
// never the claimed payload length, because the length field itself is only
// as trustworthy as the header CRC that covers it — see spec.md §4.2's
// design rationale and SPEC_FULL.md §0.
func Decode(src []byte, size int) int {
	if size < HeaderSize {
		return HeaderSize - size
	}
	if src[0] != magicFirst || src[1] != magicSecond {
		return -1
	}
	if CRC8(src[:headerCRCSpan]) != src[headerCRCSpan] {
		return -1
	}
	length := int(binary.LittleEndian.Uint16(src[3:5]))
	if size < HeaderSize+length {
		return HeaderSize + length - size
	}
	payload := src[HeaderSize : HeaderSize+length]
	if CRC8(payload) != src[6] {
		return -HeaderSize
	}
	return 0
}
