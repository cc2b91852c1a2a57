package domain

import "time"

// Certificate mirrors a retirement certificate token minted on chain.
// Upserts are keyed by TokenID so the same mint event can be applied from
// both the live listener and a backfill pass without duplication.
type Certificate struct {
	TokenID        uint64    `bson:"token_id" json:"token_id"`
	ChainProjectID uint64    `bson:"chain_project_id" json:"chain_project_id"`
	Owner          string    `bson:"owner" json:"owner"`
	Amount         int64     `bson:"amount" json:"amount"`
	URI            string    `bson:"uri" json:"uri"`
	TxHash         string    `bson:"tx_hash" json:"tx_hash"`
	MintedAt       time.Time `bson:"minted_at" json:"minted_at"`
}

// CertificateMetadata is the document content-addressed by the pinner and
// referenced by URI from the certificate contract.
type CertificateMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProjectID   string `json:"project_id"`
	Amount      int64  `json:"amount"`
	Beneficiary string `json:"beneficiary"`
	RetiredAt   string `json:"retired_at"`
}
