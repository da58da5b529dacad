// Package primitives holds the PBaaS currency payloads carried inside smart
// transaction outputs: currency value maps, token outputs and reserve
// transfers.
package primitives

import (
	"fmt"
	"math"

	"github.com/renproject/libutxo-go/bufferutils"
)

// The PBaaS VARINT is big-endian base-128 where every continuation group is
// offset by one, so each value has exactly one encoding. It is unrelated to
// the compact-size integer used by the transaction format.

func varIntLength(n uint64) int {
	length := 1
	for n > 0x7f {
		n = (n >> 7) - 1
		length++
	}
	return length
}

func writeVarInt(w *bufferutils.Writer, n uint64) {
	var tmp [10]byte
	length := 0
	for {
		tmp[length] = byte(n & 0x7f)
		if length > 0 {
			tmp[length] |= 0x80
		}
		if n <= 0x7f {
			break
		}
		n = (n >> 7) - 1
		length++
	}
	for ; length >= 0; length-- {
		w.WriteUInt8(tmp[length])
	}
}

func readVarInt(r *bufferutils.Reader) (uint64, error) {
	var n uint64
	for {
		ch, err := r.ReadUInt8()
		if err != nil {
			return 0, err
		}
		if n > math.MaxUint64>>7 {
			return 0, fmt.Errorf("varint overflows 64 bits")
		}
		n = n<<7 | uint64(ch&0x7f)
		if ch&0x80 == 0 {
			return n, nil
		}
		if n == math.MaxUint64 {
			return 0, fmt.Errorf("varint overflows 64 bits")
		}
		n++
	}
}
