package bufferutils

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"
	"github.com/renproject/libutxo-go/errors"
)

// Writer fills a buffer allocated once up front. The first failed write is
// remembered and every later write becomes a no-op, so a serializer can
// write all its fields and check Bytes once at the end.
type Writer struct {
	buf    []byte
	offset int
	err    error
}

// NewWriter allocates a Writer with exactly size bytes of capacity.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

func (w *Writer) Offset() int {
	return w.offset
}

func (w *Writer) reserve(n int) []byte {
	if w.err != nil {
		return nil
	}
	if w.offset+n > len(w.buf) {
		w.err = errors.ErrBufferOverflow
		return nil
	}
	b := w.buf[w.offset : w.offset+n]
	w.offset += n
	return b
}

func (w *Writer) WriteUInt8(v uint8) {
	if b := w.reserve(1); b != nil {
		b[0] = v
	}
}

func (w *Writer) WriteUInt16(v uint16) {
	if b := w.reserve(2); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

func (w *Writer) WriteUInt32(v uint32) {
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUInt32(uint32(v))
}

func (w *Writer) WriteUInt64(v uint64) {
	if b := w.reserve(8); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUInt64(uint64(v))
}

// WriteVarInt writes v using the shortest compact-size form.
func (w *Writer) WriteVarInt(v uint64) {
	switch {
	case v < 0xfd:
		w.WriteUInt8(uint8(v))
	case v <= 0xffff:
		w.WriteUInt8(0xfd)
		w.WriteUInt16(uint16(v))
	case v <= 0xffffffff:
		w.WriteUInt8(0xfe)
		w.WriteUInt32(uint32(v))
	default:
		w.WriteUInt8(0xff)
		w.WriteUInt64(v)
	}
}

func (w *Writer) WriteSlice(data []byte) {
	if b := w.reserve(len(data)); b != nil {
		copy(b, data)
	}
}

func (w *Writer) WriteVarSlice(data []byte) {
	w.WriteVarInt(uint64(len(data)))
	w.WriteSlice(data)
}

func (w *Writer) WriteVector(vector [][]byte) {
	w.WriteVarInt(uint64(len(vector)))
	for _, item := range vector {
		w.WriteVarSlice(item)
	}
}

// Bytes returns the written buffer. It fails if any write overflowed or if
// the buffer was not filled completely.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.offset != len(w.buf) {
		return nil, errors.ErrBufferNotFilled
	}
	return w.buf, nil
}

// VarIntSize is the encoded length of v as a compact-size integer.
func VarIntSize(v uint64) int {
	return wire.VarIntSerializeSize(v)
}

// VarSliceSize is the encoded length of a compact-size prefixed byte string.
func VarSliceSize(data []byte) int {
	return VarIntSize(uint64(len(data))) + len(data)
}

// VectorSize is the encoded length of a compact-size prefixed vector of
// byte strings.
func VectorSize(vector [][]byte) int {
	size := VarIntSize(uint64(len(vector)))
	for _, item := range vector {
		size += VarSliceSize(item)
	}
	return size
}
