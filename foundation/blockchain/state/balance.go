package state

import (
	"github.com/powledger/node/foundation/blockchain/database"
)

// BalanceOf derives the balance for an address by replaying every block's
// payload from the start of the chain. Nothing is cached; every call is a
// full replay. Fragments that fail to parse are skipped by the payload
// decoder; Validate is the authoritative tamper check.
func (s *State) BalanceOf(address string) float64 {
	var balance float64

	for _, block := range s.Chain() {
		for _, tx := range database.DecodeTxs(block.Data) {
			if tx.Recipient == address {
				balance += tx.Amount
			}
			if tx.Sender == address {
				balance -= tx.Amount
			}
		}
	}

	return balance
}
