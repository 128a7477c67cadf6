package byteio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/holiman/uint256"
)

// Writer is the encoding counterpart of Reader. Writes to the in-memory
// buffer cannot fail, so the methods do not return errors.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteU8(v uint8)   { MustWrite(&w.buf, binary.BigEndian, v) }
func (w *Writer) WriteU16(v uint16) { MustWrite(&w.buf, binary.BigEndian, v) }
func (w *Writer) WriteU32(v uint32) { MustWrite(&w.buf, binary.BigEndian, v) }
func (w *Writer) WriteU64(v uint64) { MustWrite(&w.buf, binary.BigEndian, v) }

// WriteU256 writes a 32-byte big-endian unsigned integer. A nil value writes
// 32 zero bytes.
func (w *Writer) WriteU256(v *uint256.Int) {
	var b [32]byte
	if v != nil {
		b = v.Bytes32()
	}
	w.buf.Write(b[:])
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteBytes32(v [32]byte) {
	w.buf.Write(v[:])
}

func (w *Writer) WriteBytes(v []byte) {
	w.buf.Write(v)
}

// WriteLengthPrefixed writes a u32 big-endian length followed by the bytes.
func (w *Writer) WriteLengthPrefixed(v []byte) {
	w.WriteU32(uint32(len(v)))
	w.buf.Write(v)
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// MustWrite calls binary.Write and panics on errors
func MustWrite(w io.Writer, order binary.ByteOrder, data interface{}) {
	if err := binary.Write(w, order, data); err != nil {
		panic(fmt.Errorf("failed to write binary data: %v", data).Error())
	}
}
