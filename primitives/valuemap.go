package primitives

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/renproject/libutxo-go/bufferutils"
)

// CurrencyValueMap holds arbitrary precision amounts keyed by currency
// i-address.
type CurrencyValueMap map[string]*big.Int

// Get returns the amount held for id, zero when absent. The result must not
// be modified.
func (values CurrencyValueMap) Get(id string) *big.Int {
	if amount, ok := values[id]; ok {
		return amount
	}
	return new(big.Int)
}

// Add adds amount to the entry of id, creating it if necessary.
func (values CurrencyValueMap) Add(id string, amount *big.Int) {
	values[id] = new(big.Int).Add(values.Get(id), amount)
}

func (values CurrencyValueMap) AddInt64(id string, amount int64) {
	values.Add(id, big.NewInt(amount))
}

// AddMap adds every entry of other.
func (values CurrencyValueMap) AddMap(other CurrencyValueMap) {
	for id, amount := range other {
		values.Add(id, amount)
	}
}

func (values CurrencyValueMap) Clone() CurrencyValueMap {
	clone := make(CurrencyValueMap, len(values))
	for id, amount := range values {
		clone[id] = new(big.Int).Set(amount)
	}
	return clone
}

// Keys returns the currency ids in lexical order.
func (values CurrencyValueMap) Keys() []string {
	keys := make([]string, 0, len(values))
	for id := range values {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// Strings renders every amount in base 10.
func (values CurrencyValueMap) Strings() map[string]string {
	rendered := make(map[string]string, len(values))
	for id, amount := range values {
		rendered[id] = amount.String()
	}
	return rendered
}

func (values CurrencyValueMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(values.Strings())
}

func (values *CurrencyValueMap) UnmarshalJSON(data []byte) error {
	var rendered map[string]string
	if err := json.Unmarshal(data, &rendered); err != nil {
		return err
	}
	decoded := make(CurrencyValueMap, len(rendered))
	for id, amount := range rendered {
		value, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return fmt.Errorf("invalid amount %q for currency %s", amount, id)
		}
		decoded[id] = value
	}
	*values = decoded
	return nil
}

type valueEntry struct {
	id     []byte
	amount int64
}

// entries converts the map to its wire entries, sorted by raw id.
func (values CurrencyValueMap) entries() ([]valueEntry, error) {
	entries := make([]valueEntry, 0, len(values))
	for addr, amount := range values {
		id, err := AddressToID(addr)
		if err != nil {
			return nil, err
		}
		if amount.Sign() < 0 || !amount.IsInt64() {
			return nil, fmt.Errorf("amount %v of currency %s is out of range", amount, addr)
		}
		entries = append(entries, valueEntry{id: id, amount: amount.Int64()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].id, entries[j].id) < 0
	})
	return entries, nil
}

func (values CurrencyValueMap) byteLength() int {
	return bufferutils.VarIntSize(uint64(len(values))) + len(values)*(IDLength+8)
}

func (values CurrencyValueMap) write(w *bufferutils.Writer) error {
	entries, err := values.entries()
	if err != nil {
		return err
	}
	w.WriteVarInt(uint64(len(entries)))
	for _, entry := range entries {
		if err := writeID(w, entry.id); err != nil {
			return err
		}
		w.WriteInt64(entry.amount)
	}
	return nil
}

func readCurrencyValueMap(r *bufferutils.Reader) (CurrencyValueMap, error) {
	count, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if count > uint64(r.Remaining()/(IDLength+8)) || count > math.MaxInt32 {
		return nil, fmt.Errorf("currency value map declares %d entries", count)
	}
	values := make(CurrencyValueMap, count)
	for i := uint64(0); i < count; i++ {
		id, err := readID(r)
		if err != nil {
			return nil, err
		}
		amount, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		if amount < 0 {
			return nil, fmt.Errorf("negative amount %d in currency value map", amount)
		}
		key := IDToAddress(id)
		if _, ok := values[key]; ok {
			return nil, fmt.Errorf("duplicate currency %s in currency value map", key)
		}
		values[key] = big.NewInt(amount)
	}
	return values, nil
}
