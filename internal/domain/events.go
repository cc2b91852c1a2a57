package domain

import "time"

type EventKind string

const (
	EventCreditsPurchased   EventKind = "credits_purchased"
	EventFiatCreditsGranted EventKind = "fiat_credits_granted"
	EventCertificateMinted  EventKind = "certificate_minted"
)

// LedgerEvent is a decoded event from one of the two contracts. The applier
// treats purchase-class events (CreditsPurchased, FiatCreditsGranted)
// identically: both trigger an authoritative re-read of the project.
type LedgerEvent struct {
	Kind           EventKind `json:"kind"`
	ChainProjectID uint64    `json:"chain_project_id"`
	Buyer          string    `json:"buyer,omitempty"`
	Amount         int64     `json:"amount"`
	TokenID        uint64    `json:"token_id,omitempty"`
	Owner          string    `json:"owner,omitempty"`
	URI            string    `json:"uri,omitempty"`
	TxHash         string    `json:"tx_hash"`
	BlockNumber    uint64    `json:"block_number"`
	At             time.Time `json:"at"`
}

// IsPurchase reports whether the event adds to a project's sold credits.
func (e LedgerEvent) IsPurchase() bool {
	return e.Kind == EventCreditsPurchased || e.Kind == EventFiatCreditsGranted
}
