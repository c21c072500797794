package state

import (
	"github.com/powledger/node/foundation/blockchain/database"
)

// ResolveConflicts applies the longest-chain rule against a set of candidate
// chains received from peers. A candidate wins only if it is strictly longer
// than the local chain and independently validates under the local
// configuration. The winning chain replaces the local chain wholesale; there
// is no fork-point detection or partial merge. It reports whether the local
// chain was replaced.
func (s *State) ResolveConflicts(candidates [][]database.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newChain []database.Block
	maxLength := len(s.chain)

	for _, candidate := range candidates {
		if len(candidate) <= maxLength {
			continue
		}

		if err := database.ValidateChain(candidate); err != nil {
			s.evHandler("state: ResolveConflicts: candidate rejected: %s", err)
			continue
		}

		maxLength = len(candidate)
		newChain = candidate
	}

	if newChain == nil {
		s.evHandler("state: ResolveConflicts: local chain retained: height[%d]", len(s.chain))
		return false
	}

	s.chain = make([]database.Block, len(newChain))
	copy(s.chain, newChain)

	s.evHandler("state: ResolveConflicts: local chain replaced: height[%d]", len(s.chain))

	return true
}
