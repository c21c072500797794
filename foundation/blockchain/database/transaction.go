package database

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/powledger/node/foundation/blockchain/signature"
)

// RewardAccount is the sender recorded on mining reward transactions.
const RewardAccount = "System"

// txDelimiter joins serialized transactions into a block payload.
const txDelimiter = "|"

// ErrInvalidTransaction is returned when a transaction fails the
// validity predicate.
var ErrInvalidTransaction = errors.New("invalid transaction")

// =============================================================================

// Tx is the transactional information between two parties. A transaction is
// immutable after construction and carries no relation to the chain until it
// is serialized into a block's payload.
type Tx struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Timestamp uint64  `json:"timestamp"`
	Signature string  `json:"signature,omitempty"`
}

// NewTx constructs a new transaction, capturing the time of creation.
func NewTx(sender string, recipient string, amount float64) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: uint64(time.Now().UTC().Unix()),
	}
}

// Validate is the pure validity predicate. Both parties must be identified
// and the amount must be strictly positive. Signatures are an optional
// capability and are not verified here.
func (tx Tx) Validate() error {
	if tx.Sender == "" || tx.Recipient == "" {
		return errors.New("transaction must identify a sender and a recipient")
	}

	if tx.Amount <= 0 {
		return errors.New("transaction amount must be greater than zero")
	}

	return nil
}

// Sign returns a copy of the transaction carrying an ECDSA signature over
// the transaction's content. The ledger never requires a signature; this
// exists so wallets can produce verifiable transactions.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	unsigned := tx
	unsigned.Signature = ""

	sig, err := signature.Sign(unsigned, privateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// =============================================================================

// EncodeTxs serializes the set of transactions into a single block payload,
// joined by the payload delimiter.
func EncodeTxs(txs []Tx) (string, error) {
	frags := make([]string, len(txs))
	for i, tx := range txs {
		data, err := json.Marshal(tx)
		if err != nil {
			return "", err
		}
		frags[i] = string(data)
	}

	return strings.Join(frags, txDelimiter), nil
}

// DecodeTxs splits a block payload back into transactions. Fragments that
// fail to parse are skipped so one corrupt record can't blind a full chain
// replay. ValidateChain remains the authoritative tamper check.
func DecodeTxs(data string) []Tx {
	var txs []Tx
	for _, frag := range strings.Split(data, txDelimiter) {
		var tx Tx
		if err := json.Unmarshal([]byte(frag), &tx); err != nil {
			continue
		}
		txs = append(txs, tx)
	}

	return txs
}
