package libutxo

import (
	"fmt"

	"github.com/renproject/libutxo-go/network"
	"github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Wallet derives key pairs from a BIP39 mnemonic.
type Wallet interface {
	NewKeyPair(derivationPath []uint32, password string) (*KeyPair, error)
}

type wallet struct {
	mnemonic string
	network  *network.Network
	logger   logrus.FieldLogger
}

// NewWallet returns a wallet for the mnemonic. Keys it derives belong to net.
func NewWallet(mnemonic string, net *network.Network, logger logrus.FieldLogger) (Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	if logger == nil {
		logger = nullLogger()
	}
	return &wallet{mnemonic, net, logger}, nil
}

// NewKeyPair derives the key at derivationPath. Indices at or above
// bip32.FirstHardenedChild are hardened.
func (wallet *wallet) NewKeyPair(derivationPath []uint32, password string) (*KeyPair, error) {
	seed := bip39.NewSeed(wallet.mnemonic, password)
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	for _, val := range derivationPath {
		key, err = key.NewChildKey(val)
		if err != nil {
			return nil, err
		}
	}
	kp := KeyPairFromBytes(key.Key, wallet.network)
	wallet.logger.Debugf("derived %s key at %v", wallet.network, derivationPath)
	return kp, nil
}
