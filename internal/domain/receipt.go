package domain

import "time"

type ReceiptStatus string

const (
	ReceiptStatusPending ReceiptStatus = "pending"
	ReceiptStatusOnChain ReceiptStatus = "onchain"
	ReceiptStatusError   ReceiptStatus = "error"
)

// FiatReceipt records one fiat-paid credit grant, keyed by the
// caller-supplied ReceiptID. The ledger call is attempted at most once per
// distinct receipt id; a receipt left in "error" is terminal and requires a
// deliberate resubmission under a new id.
type FiatReceipt struct {
	ReceiptID         string        `bson:"receipt_id" json:"receipt_id"`
	ProjectID         string        `bson:"project_id" json:"project_id"`
	ChainProjectID    uint64        `bson:"chain_project_id" json:"chain_project_id"`
	WalletAddress     string        `bson:"wallet_address" json:"wallet_address"`
	Amount            int64         `bson:"amount" json:"amount"`
	RetireImmediately bool          `bson:"retire_immediately" json:"retire_immediately"`
	Status            ReceiptStatus `bson:"status" json:"status"`
	TxHash            string        `bson:"tx_hash,omitempty" json:"tx_hash,omitempty"`
	Error             string        `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt         time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at" json:"updated_at"`
}

// GrantRequest is the input to the fiat grant workflow.
type GrantRequest struct {
	ReceiptID         string `json:"receipt_id"`
	ProjectID         string `json:"project_id"`
	WalletAddress     string `json:"wallet_address"`
	Amount            int64  `json:"amount"`
	RetireImmediately bool   `json:"retire_immediately"`
}
