// Package network holds the consensus parameters of every supported chain
// and the family predicates used to pick a serialization and signature-hash
// rule set.
package network

import (
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/renproject/libutxo-go/errors"
)

// BIP32 holds the extended key version bytes of a network.
type BIP32 struct {
	Public  uint32
	Private uint32
}

// Network is an immutable set of chain parameters. Profiles are package
// level values and must never be modified.
type Network struct {
	Name          string
	MessagePrefix string
	Bech32        string
	BIP32         BIP32
	// PubKeyHash and ScriptHash are one byte for most chains and two bytes
	// for Zcash.
	PubKeyHash uint16
	ScriptHash uint16
	WIF        uint8
	// IdentityPrefix is the version byte of PBaaS identity addresses.
	IdentityPrefix uint8

	CashAddrPrefix string
	CashAddrPubKey uint8
	CashAddrScript uint8

	// ForkID is set for Bitcoin Cash style chains that replay-protect
	// signatures with SIGHASH_FORKID.
	ForkID *uint32
	// ConsensusBranchID maps a Zcash transaction version to its consensus
	// branch id.
	ConsensusBranchID map[int32]uint32

	ZcashCompatible bool
	PBaaS           bool

	mainnet *Network
}

func forkID(id uint32) *uint32 {
	return &id
}

var zcashBranchIDs = map[int32]uint32{
	1: 0,
	2: 0,
	3: 0x5ba81b19,
	4: 0x76b809bb,
}

var (
	Bitcoin = &Network{
		Name:          "bitcoin",
		MessagePrefix: "\x18Bitcoin Signed Message:\n",
		Bech32:        chaincfg.MainNetParams.Bech32HRPSegwit,
		BIP32:         BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:    uint16(chaincfg.MainNetParams.PubKeyHashAddrID),
		ScriptHash:    uint16(chaincfg.MainNetParams.ScriptHashAddrID),
		WIF:           chaincfg.MainNetParams.PrivateKeyID,
	}
	BitcoinTestnet = &Network{
		Name:          "testnet",
		MessagePrefix: "\x18Bitcoin Signed Message:\n",
		Bech32:        chaincfg.TestNet3Params.Bech32HRPSegwit,
		BIP32:         BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:    uint16(chaincfg.TestNet3Params.PubKeyHashAddrID),
		ScriptHash:    uint16(chaincfg.TestNet3Params.ScriptHashAddrID),
		WIF:           chaincfg.TestNet3Params.PrivateKeyID,
		mainnet:       Bitcoin,
	}

	BitcoinCash = &Network{
		Name:           "bitcoincash",
		MessagePrefix:  "\x18Bitcoin Signed Message:\n",
		BIP32:          BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:     0x00,
		ScriptHash:     0x05,
		WIF:            0x80,
		CashAddrPrefix: "bitcoincash",
		CashAddrPubKey: 0x00,
		CashAddrScript: 0x08,
		ForkID:         forkID(0x00),
	}
	BitcoinCashTestnet = &Network{
		Name:           "bitcoincashTestnet",
		MessagePrefix:  "\x18Bitcoin Signed Message:\n",
		BIP32:          BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:     0x6f,
		ScriptHash:     0xc4,
		WIF:            0xef,
		CashAddrPrefix: "bchtest",
		CashAddrPubKey: 0x00,
		CashAddrScript: 0x08,
		ForkID:         forkID(0x00),
		mainnet:        BitcoinCash,
	}

	BitcoinSV = &Network{
		Name:          "bitcoinsv",
		MessagePrefix: "\x18Bitcoin Signed Message:\n",
		BIP32:         BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:    0x00,
		ScriptHash:    0x05,
		WIF:           0x80,
		ForkID:        forkID(0x00),
	}
	BitcoinSVTestnet = &Network{
		Name:          "bitcoinsvTestnet",
		MessagePrefix: "\x18Bitcoin Signed Message:\n",
		BIP32:         BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:    0x6f,
		ScriptHash:    0xc4,
		WIF:           0xef,
		ForkID:        forkID(0x00),
		mainnet:       BitcoinSV,
	}

	BitcoinGold = &Network{
		Name:          "bitcoingold",
		MessagePrefix: "\x18Bitcoin Gold Signed Message:\n",
		Bech32:        "btg",
		BIP32:         BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:    0x26,
		ScriptHash:    0x17,
		WIF:           0x80,
		ForkID:        forkID(0x4f),
	}
	BitcoinGoldTestnet = &Network{
		Name:          "bitcoingoldTestnet",
		MessagePrefix: "\x18Bitcoin Gold Signed Message:\n",
		Bech32:        "tbtg",
		BIP32:         BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:    0x6f,
		ScriptHash:    0xc4,
		WIF:           0xef,
		ForkID:        forkID(0x4f),
		mainnet:       BitcoinGold,
	}

	Dash = &Network{
		Name:          "dash",
		MessagePrefix: "\x19DarkCoin Signed Message:\n",
		BIP32:         BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:    0x4c,
		ScriptHash:    0x10,
		WIF:           0xcc,
	}
	DashTestnet = &Network{
		Name:          "dashTest",
		MessagePrefix: "\x19DarkCoin Signed Message:\n",
		BIP32:         BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:    0x8c,
		ScriptHash:    0x13,
		WIF:           0xef,
		mainnet:       Dash,
	}

	Litecoin = &Network{
		Name:          "litecoin",
		MessagePrefix: "\x19Litecoin Signed Message:\n",
		Bech32:        "ltc",
		BIP32:         BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:    0x30,
		ScriptHash:    0x32,
		WIF:           0xb0,
	}
	LitecoinTestnet = &Network{
		Name:          "litecoinTest",
		MessagePrefix: "\x19Litecoin Signed Message:\n",
		Bech32:        "tltc",
		BIP32:         BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:    0x6f,
		ScriptHash:    0x3a,
		WIF:           0xef,
		mainnet:       Litecoin,
	}

	Zcash = &Network{
		Name:              "zcash",
		MessagePrefix:     "\x18ZCash Signed Message:\n",
		BIP32:             BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:        0x1cb8,
		ScriptHash:        0x1cbd,
		WIF:               0x80,
		ConsensusBranchID: zcashBranchIDs,
		ZcashCompatible:   true,
	}
	ZcashTestnet = &Network{
		Name:              "zcashTest",
		MessagePrefix:     "\x18ZCash Signed Message:\n",
		BIP32:             BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:        0x1d25,
		ScriptHash:        0x1cba,
		WIF:               0xef,
		ConsensusBranchID: zcashBranchIDs,
		ZcashCompatible:   true,
		mainnet:           Zcash,
	}

	Verus = &Network{
		Name:              "verus",
		MessagePrefix:     "\x15Verus signed data:\n",
		BIP32:             BIP32{Public: 0x0488b21e, Private: 0x0488ade4},
		PubKeyHash:        0x3c,
		ScriptHash:        0x55,
		WIF:               0xbc,
		IdentityPrefix:    0x66,
		ConsensusBranchID: zcashBranchIDs,
		ZcashCompatible:   true,
		PBaaS:             true,
	}
	VerusTestnet = &Network{
		Name:              "verustest",
		MessagePrefix:     "\x15Verus signed data:\n",
		BIP32:             BIP32{Public: 0x043587cf, Private: 0x04358394},
		PubKeyHash:        0x3c,
		ScriptHash:        0x55,
		WIF:               0xbc,
		IdentityPrefix:    0x66,
		ConsensusBranchID: zcashBranchIDs,
		ZcashCompatible:   true,
		PBaaS:             true,
		mainnet:           Verus,
	}
)

// All lists every known profile, mainnets first.
var All = []*Network{
	Bitcoin, BitcoinCash, BitcoinSV, BitcoinGold, Dash, Litecoin, Zcash, Verus,
	BitcoinTestnet, BitcoinCashTestnet, BitcoinSVTestnet, BitcoinGoldTestnet,
	DashTestnet, LitecoinTestnet, ZcashTestnet, VerusTestnet,
}

// GetMainnet returns the mainnet a profile belongs to. A mainnet is its own
// mainnet, so GetMainnet(GetMainnet(n)) == GetMainnet(n).
func GetMainnet(net *Network) *Network {
	if net == nil || net.mainnet == nil {
		return net
	}
	return net.mainnet
}

// ByName looks a profile up by its name, case-insensitively.
func ByName(name string) (*Network, error) {
	for _, net := range All {
		if strings.EqualFold(net.Name, name) {
			return net, nil
		}
	}
	return nil, errors.NewErrUnsupportedNetwork(name)
}

func (net *Network) String() string {
	return net.Name
}

// BranchID returns the consensus branch id of a transaction version.
func (net *Network) BranchID(version int32) (uint32, bool) {
	id, ok := net.ConsensusBranchID[version]
	return id, ok
}

func IsBitcoin(net *Network) bool {
	return GetMainnet(net) == Bitcoin
}

func IsBitcoinCash(net *Network) bool {
	return GetMainnet(net) == BitcoinCash
}

func IsBitcoinSV(net *Network) bool {
	return GetMainnet(net) == BitcoinSV
}

func IsBitcoinGold(net *Network) bool {
	return GetMainnet(net) == BitcoinGold
}

func IsDash(net *Network) bool {
	return GetMainnet(net) == Dash
}

func IsLitecoin(net *Network) bool {
	return GetMainnet(net) == Litecoin
}

// IsZcashCompatible is true for Zcash and every chain forked from it.
func IsZcashCompatible(net *Network) bool {
	return net != nil && net.ZcashCompatible
}

func IsPBaaS(net *Network) bool {
	return net != nil && net.PBaaS
}

// UsesForkID is true for the chains whose signatures may carry the
// SIGHASH_FORKID bit.
func UsesForkID(net *Network) bool {
	main := GetMainnet(net)
	return main == BitcoinCash || main == BitcoinSV || main == BitcoinGold
}
