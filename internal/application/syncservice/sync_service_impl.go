package syncservice

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/certificaterepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/projectrepo"
	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/repositories/userrepo"
)

type syncService struct {
	projectRepo projectrepo.IProjectRepository
	certRepo    certificaterepo.ICertificateRepository
	userRepo    userrepo.IUserRepository
	ledger      LedgerClient
	feed        EventFeed
	logger      zerolog.Logger
}

func New(
	projectRepo projectrepo.IProjectRepository,
	certRepo certificaterepo.ICertificateRepository,
	userRepo userrepo.IUserRepository,
	ledger LedgerClient,
	feed EventFeed,
	logger zerolog.Logger,
) ISyncService {
	return &syncService{
		projectRepo: projectRepo,
		certRepo:    certRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		feed:        feed,
		logger:      logger,
	}
}

func (s *syncService) Apply(ctx context.Context, ev domain.LedgerEvent) error {
	switch {
	case ev.IsPurchase():
		if err := s.applyPurchase(ctx, ev); err != nil {
			return err
		}
	case ev.Kind == domain.EventCertificateMinted:
		if err := s.applyCertificateMint(ctx, ev); err != nil {
			return err
		}
	default:
		s.logger.Debug().Str("kind", string(ev.Kind)).Msg("Ignoring unknown event kind")
		return nil
	}

	if s.feed != nil {
		s.feed.BroadcastEvent(ev)
	}
	return nil
}

// applyPurchase reconciles a purchase-class event. The sold counter is
// overwritten with a value read straight from the ledger instead of being
// incremented by the event's amount, so re-delivery and reordering cannot
// drift it.
func (s *syncService) applyPurchase(ctx context.Context, ev domain.LedgerEvent) error {
	project, err := s.projectRepo.GetByChainID(ctx, ev.ChainProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		// A foreign or not-yet-bound project is not an error.
		s.logger.Debug().
			Uint64("chain_project_id", ev.ChainProjectID).
			Str("tx_hash", ev.TxHash).
			Msg("Skipping event for unknown project")
		return nil
	}

	snapshot, err := s.ledger.GetProject(ctx, ev.ChainProjectID)
	if err != nil {
		return fmt.Errorf("failed to re-read project %d: %w", ev.ChainProjectID, err)
	}
	if err := s.projectRepo.UpdateOnChainState(ctx, ev.ChainProjectID, snapshot, time.Now().UTC()); err != nil {
		return err
	}

	userRef := s.resolveBuyer(ctx, ev.Buyer)

	tx := domain.ChainTransaction{
		TxHash:  ev.TxHash,
		UserRef: userRef,
		At:      ev.At,
	}
	if err := s.projectRepo.AppendTransaction(ctx, ev.ChainProjectID, tx); err != nil {
		return err
	}

	s.logger.Info().
		Uint64("chain_project_id", ev.ChainProjectID).
		Str("kind", string(ev.Kind)).
		Str("tx_hash", ev.TxHash).
		Int64("sold_credits", snapshot.SoldCredits).
		Msg("Applied purchase event")
	return nil
}

// resolveBuyer maps a buyer address to a local user reference. Best-effort:
// an unlinked wallet or a lookup failure leaves the reference empty.
func (s *syncService) resolveBuyer(ctx context.Context, buyer string) string {
	if buyer == "" {
		return ""
	}
	user, err := s.userRepo.GetByWalletAddress(ctx, buyer)
	if err != nil {
		s.logger.Warn().Err(err).Str("buyer", buyer).Msg("Buyer lookup failed, recording transaction without user reference")
		return ""
	}
	if user == nil {
		s.logger.Debug().Str("buyer", buyer).Msg("Buyer wallet not linked to any user")
		return ""
	}
	return user.ID
}

func (s *syncService) applyCertificateMint(ctx context.Context, ev domain.LedgerEvent) error {
	cert := &domain.Certificate{
		TokenID:        ev.TokenID,
		ChainProjectID: ev.ChainProjectID,
		Owner:          ev.Owner,
		Amount:         ev.Amount,
		URI:            ev.URI,
		TxHash:         ev.TxHash,
		MintedAt:       ev.At,
	}
	if err := s.certRepo.Upsert(ctx, cert); err != nil {
		return err
	}

	s.logger.Info().
		Uint64("token_id", ev.TokenID).
		Uint64("chain_project_id", ev.ChainProjectID).
		Str("owner", ev.Owner).
		Msg("Applied certificate mint")
	return nil
}

func (s *syncService) SyncProjectNow(ctx context.Context, chainProjectID uint64) (*domain.ProjectOnChain, error) {
	snapshot, err := s.ledger.GetProject(ctx, chainProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.UpdateOnChainState(ctx, chainProjectID, snapshot, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint64("chain_project_id", chainProjectID).
		Int64("sold_credits", snapshot.SoldCredits).
		Msg("Forced project sync")
	return snapshot, nil
}

func (s *syncService) GetProjectOnChain(ctx context.Context, chainProjectID uint64) (*domain.ProjectOnChain, error) {
	return s.ledger.GetProject(ctx, chainProjectID)
}

func (s *syncService) RegisterProject(ctx context.Context, projectID string, totalCredits int64, pricePerUnit, baseURI string) (*domain.BlockchainBinding, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.NewValidationError("project %s not found", projectID)
	}
	if project.Blockchain != nil && project.Blockchain.ChainProjectID != 0 {
		return nil, domain.NewValidationError("project %s is already registered as chain project %d", projectID, project.Blockchain.ChainProjectID)
	}

	chainProjectID, txHash, err := s.ledger.RegisterProject(ctx, totalCredits, pricePerUnit, baseURI)
	if err != nil {
		return nil, err
	}

	binding := &domain.BlockchainBinding{
		ChainProjectID:     chainProjectID,
		TotalCredits:       totalCredits,
		SoldCredits:        0,
		PricePerUnit:       pricePerUnit,
		CertificateBaseURI: baseURI,
		Transactions: []domain.ChainTransaction{{
			TxHash: txHash,
			At:     time.Now().UTC(),
		}},
		LastSyncAt: time.Now().UTC(),
	}
	if err := s.projectRepo.SetBinding(ctx, projectID, binding); err != nil {
		return nil, err
	}
	return binding, nil
}

func (s *syncService) SetAutoRetireBps(ctx context.Context, chainProjectID uint64, bps int64) (string, error) {
	return s.ledger.SetAutoRetireBps(ctx, chainProjectID, bps)
}

func (s *syncService) ListCertificatesByOwner(ctx context.Context, owner string, limit, offset int) ([]*domain.Certificate, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.certRepo.ListByOwner(ctx, owner, limit, offset)
}
