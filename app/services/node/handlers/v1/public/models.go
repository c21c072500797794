package public

import (
	"github.com/powledger/node/business/sys/validate"
	"github.com/powledger/node/foundation/blockchain/database"
)

// newTx is what a client provides to submit a transaction.
type newTx struct {
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

// Validate checks the inbound transaction request against its declared
// field rules.
func (ntx newTx) Validate() error {
	return validate.Check(ntx)
}

// tx is the view of a transaction returned to clients, with display names
// resolved where possible.
type tx struct {
	Sender        string  `json:"sender"`
	SenderName    string  `json:"sender_name,omitempty"`
	Recipient     string  `json:"recipient"`
	RecipientName string  `json:"recipient_name,omitempty"`
	Amount        float64 `json:"amount"`
	Timestamp     uint64  `json:"timestamp"`
	Signature     string  `json:"signature,omitempty"`
}

// balance is the response for a balance query.
type balance struct {
	Account string  `json:"account"`
	Name    string  `json:"name,omitempty"`
	Balance float64 `json:"balance"`
	Message string  `json:"message"`
}

// message is the uniform response for operations that report an outcome.
type message struct {
	Status string `json:"status"`
}

// toTx converts a database transaction to its client view.
func (h Handlers) toTx(dbTx database.Tx) tx {
	t := tx{
		Sender:    dbTx.Sender,
		Recipient: dbTx.Recipient,
		Amount:    dbTx.Amount,
		Timestamp: dbTx.Timestamp,
		Signature: dbTx.Signature,
	}

	if h.NS != nil {
		if name := h.NS.Lookup(dbTx.Sender); name != dbTx.Sender {
			t.SenderName = name
		}
		if name := h.NS.Lookup(dbTx.Recipient); name != dbTx.Recipient {
			t.RecipientName = name
		}
	}

	return t
}
