package primitives

import (
	"fmt"

	"github.com/renproject/libutxo-go/address"
	"github.com/renproject/libutxo-go/bufferutils"
	"github.com/renproject/libutxo-go/network"
)

// IDLength is the size of a currency, system or identity id.
const IDLength = 20

// IDToAddress renders a 20-byte id as its i-address.
func IDToAddress(id []byte) string {
	return address.FromIdentity(id, network.Verus)
}

// AddressToID parses an i-address back into its 20-byte id.
func AddressToID(addr string) ([]byte, error) {
	return address.DecodeIdentity(addr, network.Verus)
}

func readID(r *bufferutils.Reader) ([]byte, error) {
	return r.ReadSlice(IDLength)
}

func writeID(w *bufferutils.Writer, id []byte) error {
	if len(id) != IDLength {
		return fmt.Errorf("id must be %d bytes, got %d", IDLength, len(id))
	}
	w.WriteSlice(id)
	return nil
}

func writeAddressID(w *bufferutils.Writer, addr string) error {
	id, err := AddressToID(addr)
	if err != nil {
		return err
	}
	return writeID(w, id)
}
