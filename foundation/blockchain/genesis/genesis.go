// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the chain level configuration captured at creation.
// The difficulty is static for the life of the chain; it is never retargeted.
type Genesis struct {
	Date         time.Time `json:"date"`
	ChainName    string    `json:"chain_name"`    // A label for this running instance.
	Difficulty   uint      `json:"difficulty"`    // Leading zero hex characters required of every block hash.
	MiningReward float64   `json:"mining_reward"` // Reward credited to the miner of each block.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
