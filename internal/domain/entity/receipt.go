package entity

// Status is the consensus outcome of a submitted transaction.
type Status string

const (
	StatusSuccess                  Status = "SUCCESS"
	StatusInsufficientPayerBalance Status = "INSUFFICIENT_PAYER_BALANCE"
	StatusInsufficientTxFee        Status = "INSUFFICIENT_TX_FEE"
	StatusInvalidAccountID         Status = "INVALID_ACCOUNT_ID"
	StatusInvalidTransaction       Status = "INVALID_TRANSACTION_BODY"
	StatusInvalidSignature         Status = "INVALID_SIGNATURE"
	StatusReceiptNotFound          Status = "RECEIPT_NOT_FOUND"
	StatusBusy                     Status = "BUSY"
	StatusInternalError            Status = "INTERNAL_ERROR"
)

func (s Status) String() string {
	return string(s)
}

// Submission is the handle returned for a submitted transaction. A receipt
// is obtained from it later.
type Submission struct {
	TransactionID string `json:"transactionId"`
}

// Receipt is the consensus record for a transaction. AccountID is set for
// successful account creations only.
type Receipt struct {
	TransactionID string     `json:"transactionId"`
	Status        Status     `json:"status"`
	AccountID     *AccountID `json:"accountId,omitempty"`
}

// Succeeded reports whether the transaction reached consensus successfully.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}
