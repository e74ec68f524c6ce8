// Package genesis maintains access to the genesis file.
package genesis

import (
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/validate"
	jsoniter "github.com/json-iterator/go"
)

// DefaultPath is the location of the genesis file relative to the project.
const DefaultPath = "zblock/genesis.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date" validate:"required"`
	ChainID       uint16    `json:"chain_id" validate:"required"`                      // The chain id represents an unique id for this running instance.
	TransPerBlock uint16    `json:"trans_per_block" validate:"required,min=1"`         // The maximum number of transactions that can be in a block.
	Difficulty    uint16    `json:"difficulty" validate:"max=64"`                      // Number of leading 0's needed in a block hash.
	MiningReward  float64   `json:"mining_reward" validate:"gt=0"`                     // Coinbase reward paid for mining a block.
	SelectorRule  string    `json:"selector_rule" validate:"required,oneof=fees fifo"` // Strategy used to fill a block from the unconfirmed pool.
}

// =============================================================================

// Load opens, consumes and validates the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, fmt.Errorf("reading genesis: %w", err)
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("validating genesis: %w", err)
	}

	return genesis, nil
}
