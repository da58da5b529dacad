// Package bufferutils is the only way the rest of the library touches raw
// transaction bytes. Reader and Writer advance an explicit offset over a byte
// slice and never read or write past its end.
package bufferutils

import (
	"encoding/binary"

	"github.com/renproject/libutxo-go/errors"
)

// Reader decodes little-endian integers, compact-size varints and
// length-prefixed byte strings from a buffer.
type Reader struct {
	buf    []byte
	offset int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

// Rewind moves the offset back n bytes.
func (r *Reader) Rewind(n int) {
	r.offset -= n
	if r.offset < 0 {
		r.offset = 0
	}
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.offset+n > len(r.buf) {
		return nil, errors.ErrTruncatedInput
	}
	b := r.buf[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *Reader) ReadUInt8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUInt16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadUInt32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUInt32()
	return int32(v), err
}

func (r *Reader) ReadUInt64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUInt64()
	return int64(v), err
}

// ReadVarInt reads a compact-size integer: one byte below 0xfd, otherwise a
// 0xfd/0xfe/0xff tag followed by a 2, 4 or 8 byte little-endian value.
func (r *Reader) ReadVarInt() (uint64, error) {
	tag, err := r.ReadUInt8()
	if err != nil {
		return 0, err
	}
	switch tag {
	case 0xfd:
		v, err := r.ReadUInt16()
		return uint64(v), err
	case 0xfe:
		v, err := r.ReadUInt32()
		return uint64(v), err
	case 0xff:
		return r.ReadUInt64()
	default:
		return uint64(tag), nil
	}
}

// ReadSlice returns a copy of the next n bytes.
func (r *Reader) ReadSlice(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadVarSlice reads a compact-size length followed by that many bytes.
func (r *Reader) ReadVarSlice() ([]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, errors.ErrTruncatedInput
	}
	return r.ReadSlice(int(n))
}

// ReadVector reads a compact-size count followed by that many var-slices.
func (r *Reader) ReadVector() ([][]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	// every element needs at least its length byte
	if n > uint64(r.Remaining()) {
		return nil, errors.ErrTruncatedInput
	}
	vector := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := r.ReadVarSlice()
		if err != nil {
			return nil, err
		}
		vector = append(vector, item)
	}
	return vector, nil
}
