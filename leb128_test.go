// Binary writer tests: LEB128, IEEE-754, length-prefixed vectors.

package chasm

import (
	"bytes"
	"testing"

	"github.com/nalgeon/be"
)

func TestWriteByte(t *testing.T) {
	var buf bytes.Buffer
	writeByte(&buf, 0x42)
	writeByte(&buf, 0xFF)
	be.True(t, bytes.Equal(buf.Bytes(), []byte{0x42, 0xFF}))
}

func TestWriteBytes(t *testing.T) {
	var buf bytes.Buffer
	data := []byte{0x01, 0x02, 0x03}
	writeBytes(&buf, data)
	be.True(t, bytes.Equal(buf.Bytes(), data))
}

func TestWriteU32(t *testing.T) {
	tests := []struct {
		in       uint32
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
		{1 << 31, []byte{0x80, 0x80, 0x80, 0x80, 0x08}},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		writeU32(&buf, test.in)
		be.True(t, bytes.Equal(buf.Bytes(), test.expected))
	}
}

func TestWriteU32RoundTrip(t *testing.T) {
	decode := func(b []byte) uint32 {
		var result uint32
		var shift uint
		for _, by := range b {
			result |= uint32(by&0x7F) << shift
			shift += 7
		}
		return result
	}
	for _, n := range []uint32{0, 1, 2, 63, 64, 127, 128, 16383, 16384, 1 << 20, 1<<32 - 1} {
		var buf bytes.Buffer
		writeU32(&buf, n)
		be.Equal(t, decode(buf.Bytes()), n)
	}
}

func TestWriteI32(t *testing.T) {
	tests := []struct {
		in       int32
		expected []byte
	}{
		{0, []byte{0x00}},
		{2, []byte{0x02}},
		{-2, []byte{0x7E}},
		{127, []byte{0xFF, 0x00}},
		{-128, []byte{0x80, 0x7F}},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		writeI32(&buf, test.in)
		be.True(t, bytes.Equal(buf.Bytes(), test.expected))
	}
}

func TestWriteF32(t *testing.T) {
	var buf bytes.Buffer
	writeF32(&buf, 1.0)
	be.True(t, bytes.Equal(buf.Bytes(), []byte{0x00, 0x00, 0x80, 0x3F}))
}

func TestWriteVec(t *testing.T) {
	var buf bytes.Buffer
	writeVec(&buf, []byte{0xAA, 0xBB, 0xCC})
	be.True(t, bytes.Equal(buf.Bytes(), []byte{0x03, 0xAA, 0xBB, 0xCC}))
}

func TestWriteName(t *testing.T) {
	var buf bytes.Buffer
	writeName(&buf, "env")
	be.True(t, bytes.Equal(buf.Bytes(), []byte{0x03, 'e', 'n', 'v'}))
}
