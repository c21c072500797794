// Package signature provides the hashing and signing support for the
// blockchain.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash is the sentinel parent hash carried by the genesis block.
const ZeroHash = "0"

// MaxDifficulty is the largest number of leading zero hex characters a
// SHA-256 digest can carry. Anything higher is unsatisfiable.
const MaxDifficulty = sha256.Size * 2

// zeroPrefix covers the full digest length so any difficulty up to
// MaxDifficulty can be matched.
const zeroPrefix = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Hash produces the digest for a block over its canonical fields. The fields
// are concatenated in this fixed order with no separators and hashed with
// SHA-256, encoded as lower-case hex.
func Hash(index uint64, prevHash string, timestamp uint64, data string, nonce uint64, difficulty uint) string {
	input := fmt.Sprintf("%d%s%d%s%d%d", index, prevHash, timestamp, data, nonce, difficulty)

	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// IsHashSolved checks the hash complies with the POW rules. The hash must
// carry a difficulty number of leading 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if int(difficulty) > len(zeroPrefix) || len(hash) != sha256.Size*2 {
		return false
	}

	return hash[:difficulty] == zeroPrefix[:difficulty]
}

// =============================================================================

// Sign hashes the specified value and signs it with the private key. The
// signature is returned in hex form for storage inside a transaction.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sig), nil
}

// FromAddress extracts the address of the account that produced the
// specified signature over the value.
func FromAddress(value any, sigStr string) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := hex.DecodeString(sigStr)
	if err != nil {
		return "", err
	}
	if len(sig) != crypto.SignatureLength {
		return "", errors.New("invalid signature length")
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// =============================================================================

// stamp returns a 32 byte hash that represents the value for signing
// purposes. A fixed stamp keeps signatures unique to this ledger.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	txHash := crypto.Keccak256(v)
	stamp := []byte("\x19Powledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}
