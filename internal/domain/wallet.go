package domain

import "time"

// User is the slice of the main application's user document this subsystem
// reads and writes: the linked wallet and the outstanding challenge.
type User struct {
	ID        string           `bson:"_id" json:"id"`
	Email     string           `bson:"email,omitempty" json:"email,omitempty"`
	Wallet    *WalletLink      `bson:"wallet,omitempty" json:"wallet,omitempty"`
	Challenge *WalletChallenge `bson:"wallet_challenge,omitempty" json:"-"`
}

// WalletLink is a proven wallet binding. Address is stored lowercase.
type WalletLink struct {
	Address  string    `bson:"address" json:"address"`
	Chain    string    `bson:"chain" json:"chain"`
	LinkedAt time.Time `bson:"linked_at" json:"linked_at"`
}

// WalletChallenge is the single outstanding challenge for a user. Issuing a
// new one overwrites the prior; it is cleared on successful linking.
type WalletChallenge struct {
	Nonce     string    `bson:"nonce" json:"nonce"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
