package syncservice

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func newFakeProjectRepo(projects ...*domain.Project) *fakeProjectRepo {
	r := &fakeProjectRepo{projects: make(map[string]*domain.Project)}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projects[id], nil
}

func (r *fakeProjectRepo) GetByChainID(_ context.Context, chainProjectID uint64) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.Blockchain != nil && p.Blockchain.ChainProjectID == chainProjectID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProjectRepo) SetBinding(_ context.Context, id string, binding *domain.BlockchainBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("project %s not found", id)
	}
	p.Blockchain = binding
	return nil
}

func (r *fakeProjectRepo) UpdateOnChainState(_ context.Context, chainProjectID uint64, snapshot *domain.ProjectOnChain, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.Blockchain != nil && p.Blockchain.ChainProjectID == chainProjectID {
			p.Blockchain.TotalCredits = snapshot.TotalCredits
			p.Blockchain.SoldCredits = snapshot.SoldCredits
			p.Blockchain.PricePerUnit = snapshot.PricePerUnit
			p.Blockchain.LastSyncAt = at
		}
	}
	return nil
}

func (r *fakeProjectRepo) AppendTransaction(_ context.Context, chainProjectID uint64, tx domain.ChainTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.Blockchain == nil || p.Blockchain.ChainProjectID != chainProjectID {
			continue
		}
		for _, existing := range p.Blockchain.Transactions {
			if existing.TxHash == tx.TxHash {
				return nil
			}
		}
		p.Blockchain.Transactions = append(p.Blockchain.Transactions, tx)
	}
	return nil
}

type fakeCertRepo struct {
	mu    sync.Mutex
	certs map[uint64]*domain.Certificate
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{certs: make(map[uint64]*domain.Certificate)}
}

func (r *fakeCertRepo) Upsert(_ context.Context, cert *domain.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cert
	r.certs[cert.TokenID] = &copied
	return nil
}

func (r *fakeCertRepo) GetByTokenID(_ context.Context, tokenID uint64) (*domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.certs[tokenID], nil
}

func (r *fakeCertRepo) ListByOwner(_ context.Context, owner string, _, _ int) ([]*domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Certificate
	for _, c := range r.certs {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	byWallet map[string]*domain.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ string) (*domain.User, error) { return nil, nil }

func (r *fakeUserRepo) GetByWalletAddress(_ context.Context, address string) (*domain.User, error) {
	return r.byWallet[address], nil
}

func (r *fakeUserRepo) SetChallenge(_ context.Context, _ string, _ *domain.WalletChallenge) error {
	return nil
}

func (r *fakeUserRepo) SetWallet(_ context.Context, _ string, _ *domain.WalletLink) error {
	return nil
}

type fakeLedger struct {
	mu        sync.Mutex
	projects  map[uint64]*domain.ProjectOnChain
	readCount int
	nextID    uint64
}

func (l *fakeLedger) GetProject(_ context.Context, chainProjectID uint64) (*domain.ProjectOnChain, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readCount++
	p, ok := l.projects[chainProjectID]
	if !ok {
		return nil, fmt.Errorf("project %d not on chain", chainProjectID)
	}
	copied := *p
	return &copied, nil
}

func (l *fakeLedger) RegisterProject(_ context.Context, totalCredits int64, pricePerUnit, _ string) (uint64, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.projects[l.nextID] = &domain.ProjectOnChain{
		ChainProjectID: l.nextID,
		TotalCredits:   totalCredits,
		PricePerUnit:   pricePerUnit,
		Active:         true,
	}
	return l.nextID, fmt.Sprintf("0xreg%d", l.nextID), nil
}

func (l *fakeLedger) SetAutoRetireBps(_ context.Context, _ uint64, _ int64) (string, error) {
	return "0xbps", nil
}

func boundProject(id string, chainID uint64) *domain.Project {
	return &domain.Project{
		ID:   id,
		Name: "Mangrove Restoration",
		Blockchain: &domain.BlockchainBinding{
			ChainProjectID: chainID,
		},
	}
}

func newService(projects *fakeProjectRepo, certs *fakeCertRepo, users *fakeUserRepo, chain *fakeLedger) ISyncService {
	if users == nil {
		users = &fakeUserRepo{byWallet: map[string]*domain.User{}}
	}
	return New(projects, certs, users, chain, nil, zerolog.Nop())
}

func TestApplyPurchaseOverwritesFromLedger(t *testing.T) {
	projects := newFakeProjectRepo(boundProject("p1", 3))
	chain := &fakeLedger{projects: map[uint64]*domain.ProjectOnChain{
		3: {ChainProjectID: 3, TotalCredits: 1000, SoldCredits: 40, PricePerUnit: "250"},
	}}
	svc := newService(projects, newFakeCertRepo(), nil, chain)

	ev := domain.LedgerEvent{
		Kind:           domain.EventCreditsPurchased,
		ChainProjectID: 3,
		Buyer:          "0x1111111111111111111111111111111111111111",
		Amount:         5,
		TxHash:         "0xabc",
		At:             time.Now(),
	}
	require.NoError(t, svc.Apply(context.Background(), ev))

	p, _ := projects.GetByChainID(context.Background(), 3)
	require.NotNil(t, p)
	assert.Equal(t, int64(40), p.Blockchain.SoldCredits, "sold credits come from the ledger read, not the event amount")
	assert.Len(t, p.Blockchain.Transactions, 1)
	assert.False(t, p.Blockchain.LastSyncAt.IsZero())
}

func TestApplyIsIdempotent(t *testing.T) {
	projects := newFakeProjectRepo(boundProject("p1", 3))
	chain := &fakeLedger{projects: map[uint64]*domain.ProjectOnChain{
		3: {ChainProjectID: 3, TotalCredits: 1000, SoldCredits: 40},
	}}
	svc := newService(projects, newFakeCertRepo(), nil, chain)

	ev := domain.LedgerEvent{
		Kind:           domain.EventFiatCreditsGranted,
		ChainProjectID: 3,
		Amount:         10,
		TxHash:         "0xdef",
		At:             time.Now(),
	}
	require.NoError(t, svc.Apply(context.Background(), ev))
	require.NoError(t, svc.Apply(context.Background(), ev))

	p, _ := projects.GetByChainID(context.Background(), 3)
	assert.Equal(t, int64(40), p.Blockchain.SoldCredits)
	assert.Len(t, p.Blockchain.Transactions, 1, "duplicate delivery must not duplicate the transaction record")
}

func TestApplyUnknownProjectIsSkipped(t *testing.T) {
	projects := newFakeProjectRepo()
	chain := &fakeLedger{projects: map[uint64]*domain.ProjectOnChain{}}
	svc := newService(projects, newFakeCertRepo(), nil, chain)

	ev := domain.LedgerEvent{
		Kind:           domain.EventCreditsPurchased,
		ChainProjectID: 99,
		TxHash:         "0xaaa",
	}
	require.NoError(t, svc.Apply(context.Background(), ev), "events for foreign projects are discarded, not errors")
	assert.Zero(t, chain.readCount, "no ledger read for an unknown project")
}

func TestApplyResolvesBuyerReference(t *testing.T) {
	projects := newFakeProjectRepo(boundProject("p1", 3))
	chain := &fakeLedger{projects: map[uint64]*domain.ProjectOnChain{
		3: {ChainProjectID: 3, SoldCredits: 1},
	}}
	users := &fakeUserRepo{byWallet: map[string]*domain.User{
		"0x2222222222222222222222222222222222222222": {ID: "user-7"},
	}}
	svc := newService(projects, newFakeCertRepo(), users, chain)

	ev := domain.LedgerEvent{
		Kind:           domain.EventCreditsPurchased,
		ChainProjectID: 3,
		Buyer:          "0x2222222222222222222222222222222222222222",
		TxHash:         "0xbbb",
		At:             time.Now(),
	}
	require.NoError(t, svc.Apply(context.Background(), ev))

	p, _ := projects.GetByChainID(context.Background(), 3)
	require.Len(t, p.Blockchain.Transactions, 1)
	assert.Equal(t, "user-7", p.Blockchain.Transactions[0].UserRef)
}

func TestApplyCertificateMintTwiceYieldsOne(t *testing.T) {
	certs := newFakeCertRepo()
	svc := newService(newFakeProjectRepo(), certs, nil, &fakeLedger{projects: map[uint64]*domain.ProjectOnChain{}})

	ev := domain.LedgerEvent{
		Kind:           domain.EventCertificateMinted,
		TokenID:        7,
		ChainProjectID: 3,
		Owner:          "0x3333333333333333333333333333333333333333",
		Amount:         10,
		URI:            "ipfs://abc",
		TxHash:         "0xccc",
		At:             time.Now(),
	}
	require.NoError(t, svc.Apply(context.Background(), ev))
	require.NoError(t, svc.Apply(context.Background(), ev))

	assert.Len(t, certs.certs, 1)
	cert, _ := certs.GetByTokenID(context.Background(), 7)
	require.NotNil(t, cert)
	assert.Equal(t, int64(10), cert.Amount)
	assert.Equal(t, "ipfs://abc", cert.URI)
}

func TestSyncProjectNowFreshProject(t *testing.T) {
	projects := newFakeProjectRepo(boundProject("p1", 3))
	chain := &fakeLedger{projects: map[uint64]*domain.ProjectOnChain{
		3: {ChainProjectID: 3, TotalCredits: 1000, SoldCredits: 40, PricePerUnit: "250", Active: true},
	}}
	svc := newService(projects, newFakeCertRepo(), nil, chain)

	snapshot, err := svc.SyncProjectNow(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(40), snapshot.SoldCredits)
	assert.Equal(t, int64(1000), snapshot.TotalCredits)

	p, _ := projects.GetByChainID(context.Background(), 3)
	assert.Equal(t, int64(40), p.Blockchain.SoldCredits)
	assert.False(t, p.Blockchain.LastSyncAt.IsZero())
}

func TestRegisterProjectBindsLedgerAssignedID(t *testing.T) {
	projects := newFakeProjectRepo(&domain.Project{ID: "p2", Name: "Peatland"})
	chain := &fakeLedger{projects: map[uint64]*domain.ProjectOnChain{}}
	svc := newService(projects, newFakeCertRepo(), nil, chain)

	binding, err := svc.RegisterProject(context.Background(), "p2", 500, "90", "ipfs://base")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), binding.ChainProjectID)
	assert.Equal(t, int64(500), binding.TotalCredits)

	p, _ := projects.GetByID(context.Background(), "p2")
	require.NotNil(t, p.Blockchain)
	assert.Equal(t, uint64(1), p.Blockchain.ChainProjectID)

	_, err = svc.RegisterProject(context.Background(), "p2", 500, "90", "ipfs://base")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr, "double registration is rejected")
}
