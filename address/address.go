// Package address encodes and decodes base58check addresses whose version
// prefix is one byte (most chains) or two bytes (Zcash).
package address

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/renproject/libutxo-go/network"
	"github.com/renproject/libutxo-go/script"
)

const (
	hashLength     = 20
	checksumLength = 4
)

// Type is the kind of hash an address commits to.
type Type uint8

const (
	PubKeyHash Type = iota
	ScriptHash
	Identity
)

func (t Type) String() string {
	switch t {
	case PubKeyHash:
		return "pubkeyhash"
	case ScriptHash:
		return "scripthash"
	case Identity:
		return "identity"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Address is a decoded address of a specific network.
type Address struct {
	Type    Type
	Hash    []byte
	Network *network.Network
}

func (addr Address) String() string {
	return FromHash160(addr.Hash, addr.version())
}

func (addr Address) version() uint16 {
	switch addr.Type {
	case ScriptHash:
		return addr.Network.ScriptHash
	case Identity:
		return uint16(addr.Network.IdentityPrefix)
	default:
		return addr.Network.PubKeyHash
	}
}

// FromHash160 encodes hash behind version. Versions above 0xff are written
// as two big-endian bytes.
func FromHash160(hash []byte, version uint16) string {
	return encodeHash(hash, versionPrefix(version))
}

// FromPubKeyHash returns the pay-to-pubkey-hash address of hash, the
// R-address on PBaaS chains.
func FromPubKeyHash(hash []byte, net *network.Network) string {
	return FromHash160(hash, net.PubKeyHash)
}

// FromPubKey returns the pay-to-pubkey-hash address of a serialized key.
func FromPubKey(pubKey []byte, net *network.Network) string {
	return FromPubKeyHash(btcutil.Hash160(pubKey), net)
}

// FromIdentity returns the i-address of a PBaaS identity or currency id.
func FromIdentity(id []byte, net *network.Network) string {
	return FromHash160(id, uint16(net.IdentityPrefix))
}

// Decode parses addr and checks its version against the network.
func Decode(addr string, net *network.Network) (Address, error) {
	prefixLength := len(versionPrefix(net.PubKeyHash))
	version, hash, err := decodeHash(addr, prefixLength)
	if err != nil {
		return Address{}, err
	}
	decoded := Address{Hash: hash, Network: net}
	switch {
	case version == net.PubKeyHash:
		decoded.Type = PubKeyHash
	case version == net.ScriptHash:
		decoded.Type = ScriptHash
	case network.IsPBaaS(net) && version == uint16(net.IdentityPrefix):
		decoded.Type = Identity
	default:
		return Address{}, fmt.Errorf("address %s has version 0x%x, not valid on %v", addr, version, net)
	}
	return decoded, nil
}

// DecodeIdentity returns the 20-byte id behind an i-address.
func DecodeIdentity(addr string, net *network.Network) ([]byte, error) {
	decoded, err := Decode(addr, net)
	if err != nil {
		return nil, err
	}
	if decoded.Type != Identity {
		return nil, fmt.Errorf("address %s is not an identity", addr)
	}
	return decoded.Hash, nil
}

// PayToAddrScript returns the output script paying to addr.
func PayToAddrScript(addr Address) ([]byte, error) {
	switch addr.Type {
	case PubKeyHash:
		return script.PayToPubKeyHashScript(addr.Hash)
	case ScriptHash:
		return script.PayToScriptHashScriptFromHash(addr.Hash)
	default:
		return nil, fmt.Errorf("cannot pay to %v address", addr.Type)
	}
}

func versionPrefix(version uint16) []byte {
	if version > 0xff {
		return []byte{byte(version >> 8), byte(version)}
	}
	return []byte{byte(version)}
}

func encodeHash(addrHash, prefix []byte) string {
	body := append(append([]byte{}, prefix...), addrHash...)
	cksum := addrChecksum(body)
	return base58.Encode(append(body, cksum[:]...))
}

func decodeHash(addr string, prefixLength int) (uint16, []byte, error) {
	decoded := base58.Decode(addr)
	if len(decoded) != prefixLength+hashLength+checksumLength {
		return 0, nil, fmt.Errorf("address %s has invalid length %d", addr, len(decoded))
	}
	body := decoded[:len(decoded)-checksumLength]
	cksum := addrChecksum(body)
	if !bytes.Equal(cksum[:], decoded[len(body):]) {
		return 0, nil, fmt.Errorf("address %s has invalid checksum", addr)
	}
	var version uint16
	for _, b := range body[:prefixLength] {
		version = version<<8 | uint16(b)
	}
	return version, append([]byte{}, body[prefixLength:]...), nil
}

func addrChecksum(input []byte) (cksum [checksumLength]byte) {
	copy(cksum[:], chainhash.DoubleHashB(input)[:checksumLength])
	return
}
