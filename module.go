package chasm

import "bytes"

// valueType is a Wasm value type used for locals and for this compiler's
// static operand-type tracking.
type valueType byte

const (
	typeI32 valueType = 0x7F
	typeF32 valueType = 0x7D
)

func (t valueType) String() string {
	switch t {
	case typeI32:
		return "i32"
	case typeF32:
		return "f32"
	default:
		return "unknown"
	}
}

// Wasm opcodes. The compiler emits all of these except opI32Const, opF32Ne
// and opF32ConvertI32S, which are defined but unused.
const (
	opBlock          byte = 0x02
	opLoop           byte = 0x03
	opIf             byte = 0x04
	opElse           byte = 0x05
	opEnd            byte = 0x0B
	opBr             byte = 0x0C
	opBrIf           byte = 0x0D
	opCall           byte = 0x10
	opLocalGet       byte = 0x20
	opLocalSet       byte = 0x21
	opI32Store8      byte = 0x3A
	opI32Const       byte = 0x41
	opF32Const       byte = 0x43
	opI32Eqz         byte = 0x45
	opF32Eq          byte = 0x5B
	opF32Ne          byte = 0x5C
	opF32Lt          byte = 0x5D
	opF32Gt          byte = 0x5E
	opI32And         byte = 0x71
	opI32Or          byte = 0x72
	opF32Add         byte = 0x92
	opF32Sub         byte = 0x93
	opF32Mul         byte = 0x94
	opF32Div         byte = 0x95
	opI32TruncF32S   byte = 0xA8
	opF32ConvertI32S byte = 0xB2
)

const blockTypeEmpty byte = 0x40

// Wasm section ids, canonical order.
const (
	secType     byte = 1
	secImport   byte = 2
	secFunction byte = 3
	secMemory   byte = 5
	secExport   byte = 7
	secCode     byte = 10
)

const (
	externFunc   byte = 0x00
	externMemory byte = 0x02
)

// function is one declared Wasm function: its body bytecode (without the
// locals-declaration prefix or trailing end, both added at finish time)
// and its parameter count. It stores no index: its position in the
// function list gives it, and its Wasm function index is that position
// plus one, because the print import takes function index 0.
type function struct {
	name      string
	numParams int
	numLocals int // locals beyond the parameters
	body      []byte
	declared  bool // true once the body has actually been compiled
}

// moduleBuilder accumulates the Type/Import/Function/Export/Code sections
// and serialises them into a byte-exact Wasm MVP binary.
type moduleBuilder struct {
	functions []*function
}

func newModuleBuilder() *moduleBuilder {
	return &moduleBuilder{}
}

// writeSection buffers a section's payload, measures it, and frames it
// with a LEB128 length prefix.
func writeSection(buf *bytes.Buffer, id byte, fill func(*bytes.Buffer)) {
	writeByte(buf, id)
	var payload bytes.Buffer
	fill(&payload)
	writeVec(buf, payload.Bytes())
}

// finish serialises the accumulated functions into a complete module.
// Section order: Type(1), Import(2), Function(3), Export(7), Code(10).
// Memory(5) is omitted because memory is imported rather than declared.
func (m *moduleBuilder) finish() []byte {
	var out bytes.Buffer

	writeBytes(&out, []byte{0x00, 0x61, 0x73, 0x6D})
	writeBytes(&out, []byte{0x01, 0x00, 0x00, 0x00})

	writeSection(&out, secType, func(b *bytes.Buffer) {
		writeU32(b, uint32(1+len(m.functions)))
		// Type 0: print (f32) -> ()
		writeByte(b, 0x60)
		writeU32(b, 1)
		writeByte(b, byte(typeF32))
		writeU32(b, 0)
		// One type per declared function, in declaration order.
		for _, fn := range m.functions {
			writeByte(b, 0x60)
			writeU32(b, uint32(fn.numParams))
			for i := 0; i < fn.numParams; i++ {
				writeByte(b, byte(typeF32))
			}
			writeU32(b, 0)
		}
	})

	writeSection(&out, secImport, func(b *bytes.Buffer) {
		writeU32(b, 2)
		writeName(b, "env")
		writeName(b, "print")
		writeByte(b, externFunc)
		writeU32(b, 0)
		writeName(b, "env")
		writeName(b, "memory")
		writeByte(b, externMemory)
		// limits: flag 0x00 (min only), min 1
		writeByte(b, 0x00)
		writeU32(b, 1)
	})

	writeSection(&out, secFunction, func(b *bytes.Buffer) {
		writeU32(b, uint32(len(m.functions)))
		for i := range m.functions {
			// type index i+1: type 0 is print's, function i uses type i+1.
			writeU32(b, uint32(i+1))
		}
	})

	writeSection(&out, secExport, func(b *bytes.Buffer) {
		writeU32(b, 1)
		writeName(b, "main")
		writeByte(b, externFunc)
		// Function index space: import (print) is index 0, first
		// declared function (main) is index 1.
		writeU32(b, 1)
	})

	writeSection(&out, secCode, func(b *bytes.Buffer) {
		writeU32(b, uint32(len(m.functions)))
		for _, fn := range m.functions {
			body := encodeFunctionBody(fn)
			writeVec(b, body)
		}
	})

	return out.Bytes()
}

// encodeFunctionBody frames a function's locals declaration in front of
// its already-emitted opcode stream, then appends the terminating end.
// All user locals beyond parameters form a single f32 group.
func encodeFunctionBody(fn *function) []byte {
	var body bytes.Buffer
	if fn.numLocals > 0 {
		writeU32(&body, 1)
		writeU32(&body, uint32(fn.numLocals))
		writeByte(&body, byte(typeF32))
	} else {
		writeU32(&body, 0)
	}
	writeBytes(&body, fn.body)
	writeByte(&body, opEnd)
	return body.Bytes()
}
