// Package smarttx encodes and decodes the parameter blocks of smart
// transaction outputs: the master block followed by OP_CHECKCRYPTOCONDITION,
// one inner block and OP_DROP.
package smarttx

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/renproject/libutxo-go/script"
)

// SmartScript is a decoded smart transaction output script.
type SmartScript struct {
	Master *OptCCParams
	Params []*OptCCParams
}

// NewSmartScript builds <master> OP_CHECKCRYPTOCONDITION <params> OP_DROP.
func NewSmartScript(master, params *OptCCParams) ([]byte, error) {
	encodedMaster, err := master.Encode()
	if err != nil {
		return nil, fmt.Errorf("master params: %v", err)
	}
	encodedParams, err := params.Encode()
	if err != nil {
		return nil, fmt.Errorf("params: %v", err)
	}
	return script.Compile([]script.Chunk{
		script.DataChunk(encodedMaster),
		script.OpChunk(script.OP_CHECKCRYPTOCONDITION),
		script.DataChunk(encodedParams),
		script.OpChunk(txscript.OP_DROP),
	})
}

// ParseSmartScript decodes an output script of the smart transaction shape.
// More than one inner params block is rejected.
func ParseSmartScript(pkScript []byte) (*SmartScript, error) {
	if script.ClassifyOutput(pkScript) != script.CryptoConditionTy {
		return nil, fmt.Errorf("script is not a smart transaction output")
	}
	chunks, err := script.Decompile(pkScript)
	if err != nil {
		return nil, err
	}
	inner := chunks[2 : len(chunks)-1]
	if len(inner) > 1 {
		return nil, fmt.Errorf("smart transaction outputs with %d params are not supported", len(inner))
	}

	master, err := DecodeOptCCParams(chunks[0].Data)
	if err != nil {
		return nil, fmt.Errorf("master params: %v", err)
	}
	params, err := DecodeOptCCParams(inner[0].Data)
	if err != nil {
		return nil, fmt.Errorf("params: %v", err)
	}
	return &SmartScript{Master: master, Params: []*OptCCParams{params}}, nil
}

// Inner returns the single inner params block.
func (smart *SmartScript) Inner() *OptCCParams {
	return smart.Params[0]
}
