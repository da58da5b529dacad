package smarttx

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/renproject/libutxo-go/script"
)

const (
	VersionV1 uint8 = 1
	VersionV2 uint8 = 2
	VersionV3 uint8 = 3
)

const paramsHeaderLength = 4

// OptCCParams is the parameter block of a smart transaction output. It is
// carried as a script of its own: a 4-byte {version, eval, m, n} header push,
// n destination pushes and the data pushes.
type OptCCParams struct {
	Version      uint8
	EvalCode     EvalCode
	M            uint8
	N            uint8
	Destinations []TxDestination
	VData        [][]byte
}

// Validate checks the structural rules every params block must satisfy.
func (params *OptCCParams) Validate() error {
	if params.Version == 0 || params.Version > VersionV3 {
		return fmt.Errorf("invalid params version %d", params.Version)
	}
	if params.EvalCode > EvalLast {
		return fmt.Errorf("invalid eval code %d", params.EvalCode)
	}
	if params.M > params.N {
		return fmt.Errorf("invalid params m=%d is greater than n=%d", params.M, params.N)
	}
	if len(params.Destinations) != int(params.N) {
		return fmt.Errorf("params declare %d destinations, have %d", params.N, len(params.Destinations))
	}
	if params.EvalCode != EvalNone && len(params.VData) == 0 {
		return fmt.Errorf("params for %v carry no data", params.EvalCode)
	}
	if params.Version < VersionV3 && len(params.VData) > 1 {
		return fmt.Errorf("version %d params carry %d data elements", params.Version, len(params.VData))
	}
	return nil
}

// IsValid reports whether a decoded block can be used.
func (params *OptCCParams) IsValid() bool {
	return params != nil && params.Validate() == nil
}

// Encode serializes the block into the script form carried inside a push.
func (params *OptCCParams) Encode() ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	chunks := make([]script.Chunk, 0, 1+len(params.Destinations)+len(params.VData))
	chunks = append(chunks, script.DataChunk([]byte{
		params.Version, uint8(params.EvalCode), params.M, params.N,
	}))
	for _, dest := range params.Destinations {
		encoded, err := dest.Encode()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, script.DataChunk(encoded))
	}
	for _, data := range params.VData {
		chunks = append(chunks, script.DataChunk(data))
	}
	return script.Compile(chunks)
}

// DecodeOptCCParams decodes a params block. Decoding never stops at the
// first problem it can recover from: on failure the partially decoded block
// is returned with Version reset to 0 alongside the error, so callers may
// decode speculatively and inspect IsValid afterwards.
func DecodeOptCCParams(data []byte) (*OptCCParams, error) {
	params := &OptCCParams{}
	if err := params.decode(data); err != nil {
		params.Version = 0
		return params, err
	}
	return params, nil
}

func (params *OptCCParams) decode(data []byte) error {
	chunks, err := script.Decompile(data)
	if err != nil {
		return err
	}
	if len(chunks) == 0 || !chunks[0].IsPush() || len(chunks[0].Data) != paramsHeaderLength {
		return fmt.Errorf("params header must be a %d byte push", paramsHeaderLength)
	}
	header := chunks[0].Data
	params.Version = header[0]
	params.EvalCode = EvalCode(header[1])
	params.M = header[2]
	params.N = header[3]

	if params.Version == 0 || params.Version > VersionV3 {
		return fmt.Errorf("invalid params version %d", params.Version)
	}
	if params.EvalCode > EvalLast {
		return fmt.Errorf("invalid eval code %d", params.EvalCode)
	}
	if len(chunks) < 1+int(params.N) {
		return fmt.Errorf("params declare %d destinations, have %d elements", params.N, len(chunks)-1)
	}

	rest := chunks[1:]
	params.Destinations = make([]TxDestination, 0, params.N)
	for _, chunk := range rest[:params.N] {
		if !chunk.IsPush() {
			return fmt.Errorf("params destination is not a data push")
		}
		dest, err := DecodeTxDestination(chunk.Data)
		if err != nil {
			return err
		}
		params.Destinations = append(params.Destinations, dest)
	}
	for _, chunk := range rest[params.N:] {
		element, err := chunkData(chunk)
		if err != nil {
			return err
		}
		params.VData = append(params.VData, element)
	}
	return params.Validate()
}

// chunkData recovers the bytes of a data element, including the ones a
// minimal encoder turned into small-integer opcodes.
func chunkData(chunk script.Chunk) ([]byte, error) {
	if chunk.IsPush() {
		return chunk.Data, nil
	}
	if n, ok := chunk.SmallInt(); ok {
		return []byte{byte(n)}, nil
	}
	if chunk.Opcode == txscript.OP_1NEGATE {
		return []byte{0x81}, nil
	}
	return nil, fmt.Errorf("params data element is opcode 0x%02x", chunk.Opcode)
}
