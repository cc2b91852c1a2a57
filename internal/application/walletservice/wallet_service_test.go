package walletservice

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByWalletAddress(_ context.Context, address string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Wallet != nil && u.Wallet.Address == address {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) SetChallenge(_ context.Context, userID string, challenge *domain.WalletChallenge) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.NewValidationError("user %s not found", userID)
	}
	u.Challenge = challenge
	return nil
}

func (r *fakeUserRepo) SetWallet(_ context.Context, userID string, link *domain.WalletLink) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.NewValidationError("user %s not found", userID)
	}
	u.Wallet = link
	u.Challenge = nil
	return nil
}

func signChallenge(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	// Wallets emit V as 27/28.
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func setup(t *testing.T) (IWalletService, *fakeUserRepo, *ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	repo := newFakeUserRepo(&domain.User{ID: "user-1"})
	svc := New(repo, "sepolia", 10*time.Minute, zerolog.Nop())
	return svc, repo, key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestLinkWalletRoundTrip(t *testing.T) {
	svc, repo, key, address := setup(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, challenge.Nonce)
	assert.Contains(t, challenge.Message, challenge.Nonce)

	link, err := svc.LinkWallet(ctx, "user-1", address, signChallenge(t, key, challenge.Message), challenge.Nonce)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", link.Chain)
	assert.Equal(t, link.Address, repo.users["user-1"].Wallet.Address)
	assert.True(t, strings.EqualFold(address, link.Address), "stored form is the same address")
	assert.Nil(t, repo.users["user-1"].Challenge, "challenge is consumed on success")
}

func TestLinkWalletStoresLowercase(t *testing.T) {
	svc, repo, key, address := setup(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)
	_, err = svc.LinkWallet(ctx, "user-1", address, signChallenge(t, key, challenge.Message), challenge.Nonce)
	require.NoError(t, err)

	stored := repo.users["user-1"].Wallet.Address
	assert.Equal(t, strings.ToLower(stored), stored)
}

func TestLinkWalletRejectsExpiredChallenge(t *testing.T) {
	svc, repo, key, address := setup(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)
	// Age the challenge past the TTL; the signature itself is still valid.
	repo.users["user-1"].Challenge.CreatedAt = time.Now().UTC().Add(-11 * time.Minute)

	_, err = svc.LinkWallet(ctx, "user-1", address, signChallenge(t, key, challenge.Message), challenge.Nonce)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "expired")
	assert.Nil(t, repo.users["user-1"].Wallet)
}

func TestLinkWalletRejectsNonceMismatch(t *testing.T) {
	svc, _, key, address := setup(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.LinkWallet(ctx, "user-1", address, signChallenge(t, key, challenge.Message), "wrong-nonce")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "nonce")
}

func TestLinkWalletRejectsWrongSigner(t *testing.T) {
	svc, _, _, address := setup(t)
	ctx := context.Background()

	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	challenge, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.LinkWallet(ctx, "user-1", address, signChallenge(t, otherKey, challenge.Message), challenge.Nonce)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestLinkWalletRejectsMalformedInput(t *testing.T) {
	svc, _, _, address := setup(t)
	ctx := context.Background()

	_, err := svc.LinkWallet(ctx, "user-1", "not-an-address", "0x00", "nonce")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	challenge, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)
	_, err = svc.LinkWallet(ctx, "user-1", address, "0xdeadbeef", challenge.Nonce)
	require.ErrorAs(t, err, &validationErr, "a short signature is a validation failure, not a panic")
}

func TestLinkWalletNoOutstandingChallenge(t *testing.T) {
	svc, _, key, address := setup(t)
	ctx := context.Background()

	_, err := svc.LinkWallet(ctx, "user-1", address, signChallenge(t, key, "anything"), "nonce")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "no wallet challenge outstanding")
}

func TestLinkWalletReplayAfterSuccessFails(t *testing.T) {
	svc, _, key, address := setup(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)
	signature := signChallenge(t, key, challenge.Message)

	_, err = svc.LinkWallet(ctx, "user-1", address, signature, challenge.Nonce)
	require.NoError(t, err)

	_, err = svc.LinkWallet(ctx, "user-1", address, signature, challenge.Nonce)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr, "the consumed challenge cannot be replayed")
}

func TestIssueChallengeOverwritesPrevious(t *testing.T) {
	svc, repo, key, address := setup(t)
	ctx := context.Background()

	first, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)
	second, err := svc.IssueChallenge(ctx, "user-1")
	require.NoError(t, err)
	require.NotEqual(t, first.Nonce, second.Nonce)

	_, err = svc.LinkWallet(ctx, "user-1", address, signChallenge(t, key, first.Message), first.Nonce)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr, "only the latest challenge is live")

	_, err = svc.LinkWallet(ctx, "user-1", address, signChallenge(t, key, second.Message), second.Nonce)
	require.NoError(t, err)
	assert.NotNil(t, repo.users["user-1"].Wallet)
}
