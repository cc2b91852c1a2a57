package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
)

// Gateway owns the shared RPC connection and the memoized contract bindings.
// Every other component reaches the ledger only through it.
type Gateway struct {
	cfg    *config.LedgerConfig
	logger zerolog.Logger

	client *ethclient.Client

	signerOnce sync.Once
	signer     *Signer
	signerErr  error

	mu          sync.Mutex
	wsClient    *ethclient.Client
	marketplace *bind.BoundContract
	certificate *bind.BoundContract
	mktAddr     common.Address
	certAddr    common.Address
	mktSet      bool
	certSet     bool
}

func NewGateway(cfg *config.LedgerConfig, logger zerolog.Logger) (*Gateway, error) {
	if cfg.RPCURL == "" {
		return nil, domain.NewConfigError("ledger.rpc_url", "no RPC endpoint configured")
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger RPC: %w", err)
	}

	return &Gateway{
		cfg:    cfg,
		logger: logger,
		client: client,
	}, nil
}

// Signer resolves the signing identity once and caches it for the process
// lifetime.
func (g *Gateway) Signer() (*Signer, error) {
	g.signerOnce.Do(func() {
		g.signer, g.signerErr = ResolveSigner(g.cfg)
		if g.signerErr == nil {
			g.logger.Info().
				Str("address", g.signer.Address.Hex()).
				Msg("Resolved signer identity")
		}
	})
	return g.signer, g.signerErr
}

// OverrideMarketplaceAddress forces the marketplace binding to be rebuilt
// against a new address (redeploy and test scenarios).
func (g *Gateway) OverrideMarketplaceAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return domain.NewConfigError("ledger.marketplace_address", "not a valid address: "+addr)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mktAddr = common.HexToAddress(addr)
	g.mktSet = true
	g.marketplace = nil
	return nil
}

// OverrideCertificateAddress forces the certificate binding to be rebuilt.
func (g *Gateway) OverrideCertificateAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return domain.NewConfigError("ledger.certificate_address", "not a valid address: "+addr)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.certAddr = common.HexToAddress(addr)
	g.certSet = true
	g.certificate = nil
	return nil
}

func (g *Gateway) marketplaceAddress() (common.Address, error) {
	if g.mktSet {
		return g.mktAddr, nil
	}
	if !common.IsHexAddress(g.cfg.MarketplaceAddress) {
		return common.Address{}, domain.NewConfigError("ledger.marketplace_address", "missing or invalid marketplace contract address")
	}
	return common.HexToAddress(g.cfg.MarketplaceAddress), nil
}

func (g *Gateway) certificateAddress() (common.Address, error) {
	if g.certSet {
		return g.certAddr, nil
	}
	if !common.IsHexAddress(g.cfg.CertificateAddress) {
		return common.Address{}, domain.NewConfigError("ledger.certificate_address", "missing or invalid certificate contract address")
	}
	return common.HexToAddress(g.cfg.CertificateAddress), nil
}

func (g *Gateway) marketplaceContract() (*bind.BoundContract, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.marketplace != nil {
		return g.marketplace, nil
	}
	addr, err := g.marketplaceAddress()
	if err != nil {
		return nil, err
	}
	g.marketplace = bind.NewBoundContract(addr, marketplaceABI, g.client, g.client, g.client)
	return g.marketplace, nil
}

func (g *Gateway) certificateContract() (*bind.BoundContract, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.certificate != nil {
		return g.certificate, nil
	}
	addr, err := g.certificateAddress()
	if err != nil {
		return nil, err
	}
	g.certificate = bind.NewBoundContract(addr, certificateABI, g.client, g.client, g.client)
	return g.certificate, nil
}

func (g *Gateway) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	signer, err := g.Signer()
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(signer.Key, big.NewInt(g.cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (g *Gateway) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, g.cfg.ConfirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, g.client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for inclusion of %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

// RegisterProject registers a project on the marketplace and returns the id
// the ledger actually assigned, extracted from the ProjectRegistered event
// in the mined receipt rather than trusted from the request.
func (g *Gateway) RegisterProject(ctx context.Context, totalCredits int64, pricePerUnit string, baseURI string) (uint64, string, error) {
	contract, err := g.marketplaceContract()
	if err != nil {
		return 0, "", err
	}
	opts, err := g.transactOpts(ctx)
	if err != nil {
		return 0, "", err
	}

	price, ok := new(big.Int).SetString(pricePerUnit, 10)
	if !ok {
		return 0, "", domain.NewValidationError("invalid price per unit: %q", pricePerUnit)
	}

	tx, err := contract.Transact(opts, "registerProject", big.NewInt(totalCredits), price, baseURI)
	if err != nil {
		return 0, "", fmt.Errorf("failed to submit registerProject: %w", err)
	}
	receipt, err := g.waitMined(ctx, tx)
	if err != nil {
		return 0, "", err
	}

	for _, l := range receipt.Logs {
		if len(l.Topics) >= 2 && l.Topics[0] == topicProjectRegistered {
			projectID := new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
			g.logger.Info().
				Uint64("chain_project_id", projectID).
				Str("tx_hash", tx.Hash().Hex()).
				Msg("Registered project on chain")
			return projectID, tx.Hash().Hex(), nil
		}
	}
	return 0, "", fmt.Errorf("transaction %s mined without a ProjectRegistered event", tx.Hash().Hex())
}

// GrantFiatCredits submits an operator-signed credit grant for a wallet
// that paid off chain.
func (g *Gateway) GrantFiatCredits(ctx context.Context, chainProjectID uint64, to string, amount int64, retire bool, certURI string) (string, error) {
	contract, err := g.marketplaceContract()
	if err != nil {
		return "", err
	}
	opts, err := g.transactOpts(ctx)
	if err != nil {
		return "", err
	}
	if !common.IsHexAddress(to) {
		return "", domain.NewValidationError("invalid recipient address: %q", to)
	}

	tx, err := contract.Transact(opts, "grantCredits",
		new(big.Int).SetUint64(chainProjectID), common.HexToAddress(to), big.NewInt(amount), retire, certURI)
	if err != nil {
		return "", fmt.Errorf("failed to submit grantCredits: %w", err)
	}
	if _, err := g.waitMined(ctx, tx); err != nil {
		return "", err
	}

	g.logger.Info().
		Uint64("chain_project_id", chainProjectID).
		Str("recipient", strings.ToLower(to)).
		Int64("amount", amount).
		Bool("retire", retire).
		Str("tx_hash", tx.Hash().Hex()).
		Msg("Granted fiat credits on chain")
	return tx.Hash().Hex(), nil
}

// GetProject reads the authoritative on-chain project record.
func (g *Gateway) GetProject(ctx context.Context, chainProjectID uint64) (*domain.ProjectOnChain, error) {
	contract, err := g.marketplaceContract()
	if err != nil {
		return nil, err
	}

	var out []interface{}
	err = contract.Call(&bind.CallOpts{Context: ctx}, &out, "getProject", new(big.Int).SetUint64(chainProjectID))
	if err != nil {
		return nil, fmt.Errorf("failed to read project %d: %w", chainProjectID, err)
	}
	return projectFromCallResult(chainProjectID, out)
}

// projectFromCallResult converts the raw getProject outputs into a snapshot.
// Every output is type-checked, including the active flag: a failed bool
// assertion must surface as an error, not read as an inactive project.
func projectFromCallResult(chainProjectID uint64, out []interface{}) (*domain.ProjectOnChain, error) {
	if len(out) < 5 {
		return nil, fmt.Errorf("unexpected getProject result arity: %d", len(out))
	}

	totalCredits, _ := out[0].(*big.Int)
	soldCredits, _ := out[1].(*big.Int)
	pricePerUnit, _ := out[2].(*big.Int)
	active, activeOK := out[3].(bool)
	autoRetireBps, _ := out[4].(*big.Int)
	if totalCredits == nil || soldCredits == nil || pricePerUnit == nil || autoRetireBps == nil || !activeOK {
		return nil, fmt.Errorf("unexpected getProject result types for project %d", chainProjectID)
	}

	return &domain.ProjectOnChain{
		ChainProjectID: chainProjectID,
		TotalCredits:   totalCredits.Int64(),
		SoldCredits:    soldCredits.Int64(),
		PricePerUnit:   pricePerUnit.String(),
		Active:         active,
		AutoRetireBps:  autoRetireBps.Int64(),
	}, nil
}

// SetAutoRetireBps sets the retirement basis points; chainProjectID 0 sets
// the global default.
func (g *Gateway) SetAutoRetireBps(ctx context.Context, chainProjectID uint64, bps int64) (string, error) {
	if bps < 0 || bps > 10000 {
		return "", domain.NewValidationError("basis points out of range: %d", bps)
	}
	contract, err := g.marketplaceContract()
	if err != nil {
		return "", err
	}
	opts, err := g.transactOpts(ctx)
	if err != nil {
		return "", err
	}

	tx, err := contract.Transact(opts, "setAutoRetireBps", new(big.Int).SetUint64(chainProjectID), big.NewInt(bps))
	if err != nil {
		return "", fmt.Errorf("failed to submit setAutoRetireBps: %w", err)
	}
	if _, err := g.waitMined(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

// Head returns the current chain head block number.
func (g *Gateway) Head(ctx context.Context) (uint64, error) {
	head, err := g.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read chain head: %w", err)
	}
	return head, nil
}

func (g *Gateway) watchedAddresses() ([]common.Address, error) {
	mkt, err := g.marketplaceAddress()
	if err != nil {
		return nil, err
	}
	cert, err := g.certificateAddress()
	if err != nil {
		return nil, err
	}
	return []common.Address{mkt, cert}, nil
}

// FilterEvents scans [from, to] for logs of both contracts and decodes them.
// Logs that do not match a known event are skipped.
func (g *Gateway) FilterEvents(ctx context.Context, from, to uint64) ([]domain.LedgerEvent, error) {
	addresses, err := g.watchedAddresses()
	if err != nil {
		return nil, err
	}

	logs, err := g.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs %d-%d: %w", from, to, err)
	}

	events := make([]domain.LedgerEvent, 0, len(logs))
	for _, l := range logs {
		if ev, ok := DecodeEvent(l); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// SubscribeEvents opens a live subscription over the websocket endpoint and
// forwards decoded events into out until the subscription dies or ctx ends.
// The forwarding goroutine owns the subscription's error channel (a
// go-ethereum subscription delivers exactly one error) and closes out on
// exit, so consumers detect termination from the channel close alone.
func (g *Gateway) SubscribeEvents(ctx context.Context, out chan<- domain.LedgerEvent) (ethereum.Subscription, error) {
	addresses, err := g.watchedAddresses()
	if err != nil {
		return nil, err
	}
	ws, err := g.websocketClient(ctx)
	if err != nil {
		return nil, err
	}

	logs := make(chan types.Log, cap(out))
	sub, err := ws.SubscribeFilterLogs(ctx, ethereum.FilterQuery{Addresses: addresses}, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to ledger events: %w", err)
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					g.logger.Error().Err(err).Msg("Ledger event subscription failed")
				}
				return
			case l := <-logs:
				if ev, ok := DecodeEvent(l); ok {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return sub, nil
}

func (g *Gateway) websocketClient(ctx context.Context) (*ethclient.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wsClient != nil {
		return g.wsClient, nil
	}
	if g.cfg.WSURL == "" {
		return nil, domain.NewConfigError("ledger.ws_url", "no websocket endpoint configured for subscriptions")
	}
	ws, err := ethclient.DialContext(ctx, g.cfg.WSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger websocket RPC: %w", err)
	}
	g.wsClient = ws
	return ws, nil
}
