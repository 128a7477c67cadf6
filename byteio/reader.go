// Package byteio provides a bounds-checked cursor for decoding the
// big-endian wire formats used by cross-chain messages. Every read either
// returns the value and advances the offset or fails with ErrOutOfBounds;
// reads never truncate or wrap.
package byteio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	// ErrOutOfBounds is returned when a read would run past the end of the buffer.
	ErrOutOfBounds = errors.New("read out of bounds")
	// ErrTrailingBytes is returned by Done when decoding left unconsumed bytes.
	ErrTrailingBytes = errors.New("trailing bytes after decode")
)

// Reader is a read cursor over an immutable byte buffer. The zero value is
// an empty reader; use NewReader for a buffer. Sub-slices returned by Read
// methods alias the underlying buffer and must not be mutated.
type Reader struct {
	buf    []byte
	offset int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.offset
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.offset
}

// take consumes n bytes, failing if fewer remain.
func (r *Reader) take(n int, what string) ([]byte, error) {
	if r.offset+n > len(r.buf) {
		return nil, fmt.Errorf("%s at offset %d: need %d bytes, have %d: %w",
			what, r.offset, n, len(r.buf)-r.offset, ErrOutOfBounds)
	}
	b := r.buf[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *Reader) ReadU8(what string) (uint8, error) {
	b, err := r.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU16(what string) (uint16, error) {
	b, err := r.take(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) ReadU32(what string) (uint32, error) {
	b, err := r.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadU64(what string) (uint64, error) {
	b, err := r.take(8, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadU256 reads a 32-byte big-endian unsigned integer.
func (r *Reader) ReadU256(what string) (*uint256.Int, error) {
	b, err := r.take(32, what)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// ReadBool reads a single byte and maps 0 to false, anything else to true.
func (r *Reader) ReadBool(what string) (bool, error) {
	b, err := r.ReadU8(what)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadBytes32 reads a fixed 32-byte field.
func (r *Reader) ReadBytes32(what string) ([32]byte, error) {
	var out [32]byte
	b, err := r.take(32, what)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int, what string) ([]byte, error) {
	return r.take(n, what)
}

// ReadLengthPrefixed reads a u32 big-endian length followed by that many bytes.
func (r *Reader) ReadLengthPrefixed(what string) ([]byte, error) {
	n, err := r.ReadU32(what + " length")
	if err != nil {
		return nil, err
	}
	// Checked as uint64 before the int conversion: int is 32 bits on some
	// platforms and a wire length near max u32 would go negative.
	if uint64(n) > uint64(r.Len()) {
		return nil, fmt.Errorf("%s at offset %d: need %d bytes, have %d: %w",
			what, r.offset, n, r.Len(), ErrOutOfBounds)
	}
	return r.take(int(n), what)
}

// Remainder consumes and returns everything from the cursor to the end of the
// buffer. Used for final, unprefixed payload fields.
func (r *Reader) Remainder() []byte {
	b := r.buf[r.offset:]
	r.offset = len(r.buf)
	return b
}

// Done asserts the whole buffer was consumed. Top-level struct decoders must
// call this after their last field.
func (r *Reader) Done() error {
	if n := r.Len(); n != 0 {
		return fmt.Errorf("%d unconsumed bytes at offset %d: %w", n, r.offset, ErrTrailingBytes)
	}
	return nil
}
