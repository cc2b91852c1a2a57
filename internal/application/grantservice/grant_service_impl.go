package grantservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/infrastructure/pinning"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/projectrepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/receiptrepo"
)

type grantService struct {
	receiptRepo receiptrepo.IReceiptRepository
	projectRepo projectrepo.IProjectRepository
	granter     CreditGranter
	pinner      pinning.Pinner
	feed        ReceiptFeed
	logger      zerolog.Logger
}

func New(
	receiptRepo receiptrepo.IReceiptRepository,
	projectRepo projectrepo.IProjectRepository,
	granter CreditGranter,
	pinner pinning.Pinner,
	feed ReceiptFeed,
	logger zerolog.Logger,
) IGrantService {
	return &grantService{
		receiptRepo: receiptRepo,
		projectRepo: projectRepo,
		granter:     granter,
		pinner:      pinner,
		feed:        feed,
		logger:      logger,
	}
}

func (s *grantService) Grant(ctx context.Context, req *domain.GrantRequest) (*domain.FiatReceipt, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Idempotent short-circuit: any prior sighting of the receipt id wins,
	// including one that ended in error. A failed submission may have
	// partially executed on chain, so it is never retried automatically;
	// resubmission requires a fresh receipt id.
	existing, err := s.receiptRepo.GetByReceiptID(ctx, req.ReceiptID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info().
			Str("receipt_id", req.ReceiptID).
			Str("status", string(existing.Status)).
			Msg("Returning existing receipt, no new ledger submission")
		return existing, nil
	}

	project, err := s.projectRepo.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.NewValidationError("project %s not found", req.ProjectID)
	}
	if project.Blockchain == nil || project.Blockchain.ChainProjectID == 0 {
		return nil, domain.NewValidationError("project %s is not registered on chain", req.ProjectID)
	}

	certURI := ""
	if req.RetireImmediately {
		certURI = s.pinMetadata(ctx, project, req)
	}

	now := time.Now().UTC()
	receipt := &domain.FiatReceipt{
		ReceiptID:         req.ReceiptID,
		ProjectID:         req.ProjectID,
		ChainProjectID:    project.Blockchain.ChainProjectID,
		WalletAddress:     req.WalletAddress,
		Amount:            req.Amount,
		RetireImmediately: req.RetireImmediately,
		Status:            domain.ReceiptStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		if errors.Is(err, receiptrepo.ErrDuplicateReceipt) {
			// Lost the insert race against an identical request; return the
			// winner, exactly one submission happens.
			return s.receiptRepo.GetByReceiptID(ctx, req.ReceiptID)
		}
		return nil, err
	}

	txHash, grantErr := s.granter.GrantFiatCredits(ctx,
		receipt.ChainProjectID, req.WalletAddress, req.Amount, req.RetireImmediately, certURI)
	if grantErr != nil {
		receipt.Status = domain.ReceiptStatusError
		receipt.Error = grantErr.Error()
		if markErr := s.receiptRepo.MarkError(ctx, req.ReceiptID, grantErr.Error()); markErr != nil {
			s.logger.Error().Err(markErr).Str("receipt_id", req.ReceiptID).Msg("Failed to persist receipt error status")
		}
		s.publish(*receipt)
		s.logger.Error().Err(grantErr).
			Str("receipt_id", req.ReceiptID).
			Uint64("chain_project_id", receipt.ChainProjectID).
			Msg("Fiat grant failed, receipt left in terminal error status")
		return receipt, fmt.Errorf("fiat grant failed: %w", grantErr)
	}

	receipt.Status = domain.ReceiptStatusOnChain
	receipt.TxHash = txHash
	if err := s.receiptRepo.MarkOnChain(ctx, req.ReceiptID, txHash); err != nil {
		return nil, err
	}
	s.publish(*receipt)

	s.logger.Info().
		Str("receipt_id", req.ReceiptID).
		Str("tx_hash", txHash).
		Int64("amount", req.Amount).
		Msg("Fiat grant confirmed on chain")
	return receipt, nil
}

func (s *grantService) GetReceipt(ctx context.Context, receiptID string) (*domain.FiatReceipt, error) {
	return s.receiptRepo.GetByReceiptID(ctx, receiptID)
}

// pinMetadata content-addresses the retirement certificate metadata. A pin
// failure must not fail the grant; it is logged and the ledger call proceeds
// without a URI.
func (s *grantService) pinMetadata(ctx context.Context, project *domain.Project, req *domain.GrantRequest) string {
	meta := domain.CertificateMetadata{
		Name:        fmt.Sprintf("Carbon retirement certificate - %s", project.Name),
		Description: fmt.Sprintf("Retirement of %d credits from project %s", req.Amount, project.Name),
		ProjectID:   project.ID,
		Amount:      req.Amount,
		Beneficiary: req.WalletAddress,
		RetiredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	uri, err := s.pinner.PinCertificateMetadata(ctx, meta)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("receipt_id", req.ReceiptID).
			Msg("Failed to pin certificate metadata, granting without URI")
		return ""
	}
	return uri
}

func (s *grantService) publish(receipt domain.FiatReceipt) {
	if s.feed != nil {
		s.feed.BroadcastReceipt(receipt)
	}
}

func validateRequest(req *domain.GrantRequest) error {
	if req.ReceiptID == "" {
		return domain.NewValidationError("receipt id is required")
	}
	if req.ProjectID == "" {
		return domain.NewValidationError("project id is required")
	}
	if req.Amount <= 0 {
		return domain.NewValidationError("amount must be positive, got %d", req.Amount)
	}
	if !common.IsHexAddress(req.WalletAddress) {
		return domain.NewValidationError("invalid wallet address: %q", req.WalletAddress)
	}
	return nil
}
