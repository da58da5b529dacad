package libutxo

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/renproject/libutxo-go/address"
	"github.com/renproject/libutxo-go/network"
	"github.com/sirupsen/logrus"
)

// wifCompressedFlag marks a WIF key whose public key is serialized
// compressed.
const wifCompressedFlag = 0x01

// A Signer produces DER encoded ECDSA signatures over 32-byte digests.
// Signers that keep keys elsewhere (hardware, remote custody) only need to
// implement this interface to be used with a TxBuilder.
type Signer interface {
	Sign(hash []byte) ([]byte, error)
	PublicKey() []byte
}

// KeyPair is a secp256k1 private key bound to a network.
type KeyPair struct {
	PrivKey *btcec.PrivateKey
	Network *network.Network
}

// NewKeyPair generates a random key pair.
func NewKeyPair(net *network.Network) (*KeyPair, error) {
	privKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{PrivKey: privKey, Network: net}, nil
}

// KeyPairFromBytes returns the key pair of a 32-byte private scalar.
func KeyPairFromBytes(key []byte, net *network.Network) *KeyPair {
	privKey, _ := btcec.PrivKeyFromBytes(key)
	return &KeyPair{PrivKey: privKey, Network: net}
}

// KeyPairFromWIF decodes a wallet import format key of the given network.
func KeyPairFromWIF(wif string, net *network.Network) (*KeyPair, error) {
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, err
	}
	if version != net.WIF {
		return nil, fmt.Errorf("wif version %#x does not belong to %s", version, net)
	}
	switch {
	case len(payload) == btcec.PrivKeyBytesLen:
	case len(payload) == btcec.PrivKeyBytesLen+1 && payload[btcec.PrivKeyBytesLen] == wifCompressedFlag:
		payload = payload[:btcec.PrivKeyBytesLen]
	default:
		return nil, fmt.Errorf("malformed wif payload of %d bytes", len(payload))
	}
	return KeyPairFromBytes(payload, net), nil
}

// WIF encodes the private key for a compressed public key.
func (kp *KeyPair) WIF() string {
	payload := append(kp.PrivKey.Serialize(), wifCompressedFlag)
	return base58.CheckEncode(payload, kp.Network.WIF)
}

// Sign signs a digest and returns the DER encoded signature, without a hash
// type byte.
func (kp *KeyPair) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("expected a 32 byte digest, got %d bytes", len(hash))
	}
	return ecdsa.Sign(kp.PrivKey, hash).Serialize(), nil
}

// PublicKey returns the compressed public key.
func (kp *KeyPair) PublicKey() []byte {
	return kp.PrivKey.PubKey().SerializeCompressed()
}

// Verify checks a DER signature over hash against the key pair.
func (kp *KeyPair) Verify(hash, sig []byte) bool {
	signature, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return signature.Verify(hash, kp.PrivKey.PubKey())
}

// Address returns the pay to public key hash address of the key pair.
func (kp *KeyPair) Address() string {
	return address.FromPubKey(kp.PublicKey(), kp.Network)
}

// nullLogger discards everything. It is used when callers pass a nil logger.
func nullLogger() logrus.FieldLogger {
	logger := logrus.New()
	logFile, err := os.OpenFile(os.DevNull, os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		panic(err)
	}
	logger.SetOutput(logFile)
	return logger
}
