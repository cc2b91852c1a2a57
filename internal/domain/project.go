package domain

import "time"

// Project is the off-chain record for a carbon-credit project. Only the
// Blockchain subdocument is owned by this subsystem; the rest of the
// document is managed by the main application.
type Project struct {
	ID         string             `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Blockchain *BlockchainBinding `bson:"blockchain,omitempty" json:"blockchain,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// BlockchainBinding mirrors the project's on-chain record. SoldCredits is
// only ever overwritten with a value read directly from the ledger, never
// incremented locally, so double-delivered events cannot drift it.
type BlockchainBinding struct {
	ChainProjectID     uint64             `bson:"chain_project_id" json:"chain_project_id"`
	TotalCredits       int64              `bson:"total_credits" json:"total_credits"`
	SoldCredits        int64              `bson:"sold_credits" json:"sold_credits"`
	PricePerUnit       string             `bson:"price_per_unit" json:"price_per_unit"`
	CertificateBaseURI string             `bson:"certificate_base_uri" json:"certificate_base_uri"`
	Transactions       []ChainTransaction `bson:"transactions" json:"transactions"`
	LastSyncAt         time.Time          `bson:"last_sync_at" json:"last_sync_at"`
}

// ChainTransaction is one ledger transaction touching the project. The list
// is append-only and de-duplicated by TxHash.
type ChainTransaction struct {
	TxHash  string    `bson:"tx_hash" json:"tx_hash"`
	UserRef string    `bson:"user_ref,omitempty" json:"user_ref,omitempty"`
	At      time.Time `bson:"at" json:"at"`
}

// ProjectOnChain is the authoritative snapshot read from the marketplace
// contract.
type ProjectOnChain struct {
	ChainProjectID uint64 `json:"chain_project_id"`
	TotalCredits   int64  `json:"total_credits"`
	SoldCredits    int64  `json:"sold_credits"`
	PricePerUnit   string `json:"price_per_unit"`
	Active         bool   `json:"active"`
	AutoRetireBps  int64  `json:"auto_retire_bps"`
}
