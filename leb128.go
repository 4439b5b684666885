package chasm

import (
	"bytes"
	"encoding/binary"
	"math"
)

// writeByte appends a single byte.
func writeByte(buf *bytes.Buffer, b byte) {
	buf.WriteByte(b)
}

// writeBytes appends raw bytes verbatim.
func writeBytes(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
}

// writeU32 encodes v as unsigned LEB128.
func writeU32(buf *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			buf.WriteByte(b | 0x80)
			continue
		}
		buf.WriteByte(b)
		return
	}
}

// writeI32 encodes v as signed LEB128.
func writeI32(buf *bytes.Buffer, v int32) {
	more := true
	for more {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		buf.WriteByte(b)
	}
}

// writeF32 encodes v as little-endian IEEE-754.
func writeF32(buf *bytes.Buffer, v float32) {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], math.Float32bits(v))
	buf.Write(raw[:])
}

// writeVec writes a LEB128 length prefix followed by data.
func writeVec(buf *bytes.Buffer, data []byte) {
	writeU32(buf, uint32(len(data)))
	buf.Write(data)
}

// writeName writes a UTF-8 string as a LEB128 length-prefixed byte vector.
func writeName(buf *bytes.Buffer, name string) {
	writeVec(buf, []byte(name))
}
