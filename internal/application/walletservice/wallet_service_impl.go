package walletservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/userrepo"
)

const challengeTemplate = "GreenCommunity wallet verification\n\nSign this message to prove you control this wallet.\n\nNonce: %s\nIssued at: %s"

type walletService struct {
	userRepo     userrepo.IUserRepository
	chainName    string
	challengeTTL time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

func New(userRepo userrepo.IUserRepository, chainName string, challengeTTL time.Duration, logger zerolog.Logger) IWalletService {
	if challengeTTL == 0 {
		challengeTTL = 10 * time.Minute
	}
	return &walletService{
		userRepo:     userRepo,
		chainName:    chainName,
		challengeTTL: challengeTTL,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *walletService) IssueChallenge(ctx context.Context, userID string) (*domain.WalletChallenge, error) {
	issuedAt := s.now()
	nonce := uuid.NewString()
	challenge := &domain.WalletChallenge{
		Nonce:     nonce,
		Message:   fmt.Sprintf(challengeTemplate, nonce, issuedAt.Format(time.RFC3339)),
		CreatedAt: issuedAt,
	}

	if err := s.userRepo.SetChallenge(ctx, userID, challenge); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("nonce", nonce).
		Msg("Issued wallet challenge")
	return challenge, nil
}

func (s *walletService) LinkWallet(ctx context.Context, userID, address, signature, nonce string) (*domain.WalletLink, error) {
	if !common.IsHexAddress(address) {
		return nil, domain.NewValidationError("invalid wallet address: %q", address)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewValidationError("user %s not found", userID)
	}
	if user.Challenge == nil {
		return nil, domain.NewValidationError("no wallet challenge outstanding, request one first")
	}
	if user.Challenge.Nonce != nonce {
		return nil, domain.NewValidationError("challenge nonce mismatch")
	}
	if s.now().Sub(user.Challenge.CreatedAt) > s.challengeTTL {
		return nil, domain.NewValidationError("challenge expired, request a new one")
	}

	recovered, err := recoverSigner(user.Challenge.Message, signature)
	if err != nil {
		return nil, domain.NewValidationError("invalid signature: %s", err.Error())
	}
	if !strings.EqualFold(recovered.Hex(), address) {
		return nil, domain.NewValidationError("signature was produced by %s, not by the claimed address", recovered.Hex())
	}

	link := &domain.WalletLink{
		Address:  strings.ToLower(address),
		Chain:    s.chainName,
		LinkedAt: s.now(),
	}
	if err := s.userRepo.SetWallet(ctx, userID, link); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("address", link.Address).
		Msg("Linked wallet")
	return link, nil
}

// recoverSigner recovers the address that personal-signed the challenge
// message (EIP-191 prefixed hash, 65-byte signature, V normalized from
// 27/28).
func recoverSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
