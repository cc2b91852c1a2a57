package ledger

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

const marketplaceABIJSON = `[
  {"type":"function","name":"registerProject","stateMutability":"nonpayable","inputs":[{"name":"totalCredits","type":"uint256"},{"name":"pricePerUnit","type":"uint256"},{"name":"baseURI","type":"string"}],"outputs":[{"name":"projectId","type":"uint256"}]},
  {"type":"function","name":"grantCredits","stateMutability":"nonpayable","inputs":[{"name":"projectId","type":"uint256"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"retire","type":"bool"},{"name":"certURI","type":"string"}],"outputs":[]},
  {"type":"function","name":"getProject","stateMutability":"view","inputs":[{"name":"projectId","type":"uint256"}],"outputs":[{"name":"totalCredits","type":"uint256"},{"name":"soldCredits","type":"uint256"},{"name":"pricePerUnit","type":"uint256"},{"name":"active","type":"bool"},{"name":"autoRetireBps","type":"uint256"}]},
  {"type":"function","name":"setAutoRetireBps","stateMutability":"nonpayable","inputs":[{"name":"projectId","type":"uint256"},{"name":"bps","type":"uint256"}],"outputs":[]},
  {"type":"event","name":"ProjectRegistered","inputs":[{"name":"projectId","type":"uint256","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"totalCredits","type":"uint256","indexed":false}]},
  {"type":"event","name":"CreditsPurchased","inputs":[{"name":"projectId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"FiatCreditsGranted","inputs":[{"name":"projectId","type":"uint256","indexed":true},{"name":"recipient","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

const certificateABIJSON = `[
  {"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"event","name":"CertificateMinted","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"projectId","type":"uint256","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"uri","type":"string","indexed":false}]}
]`

var (
	marketplaceABI = mustParseABI(marketplaceABIJSON)
	certificateABI = mustParseABI(certificateABIJSON)

	topicProjectRegistered  = marketplaceABI.Events["ProjectRegistered"].ID
	topicCreditsPurchased   = marketplaceABI.Events["CreditsPurchased"].ID
	topicFiatCreditsGranted = marketplaceABI.Events["FiatCreditsGranted"].ID
	topicCertificateMinted  = certificateABI.Events["CertificateMinted"].ID
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("invalid contract ABI: " + err.Error())
	}
	return parsed
}

// DecodeEvent turns a raw log from either contract into a typed event.
// Unknown topics return false: logs from unrelated events (or future
// contract upgrades) are skipped, not errors.
func DecodeEvent(l types.Log) (domain.LedgerEvent, bool) {
	if len(l.Topics) == 0 {
		return domain.LedgerEvent{}, false
	}

	ev := domain.LedgerEvent{
		TxHash:      l.TxHash.Hex(),
		BlockNumber: l.BlockNumber,
		At:          time.Now().UTC(),
	}

	switch l.Topics[0] {
	case topicCreditsPurchased, topicFiatCreditsGranted:
		if len(l.Topics) < 3 {
			return domain.LedgerEvent{}, false
		}
		if l.Topics[0] == topicCreditsPurchased {
			ev.Kind = domain.EventCreditsPurchased
		} else {
			ev.Kind = domain.EventFiatCreditsGranted
		}
		ev.ChainProjectID = new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
		ev.Buyer = strings.ToLower(common.BytesToAddress(l.Topics[2].Bytes()).Hex())

		name := "CreditsPurchased"
		if ev.Kind == domain.EventFiatCreditsGranted {
			name = "FiatCreditsGranted"
		}
		values, err := marketplaceABI.Unpack(name, l.Data)
		if err != nil || len(values) < 1 {
			return domain.LedgerEvent{}, false
		}
		amount, ok := values[0].(*big.Int)
		if !ok {
			return domain.LedgerEvent{}, false
		}
		ev.Amount = amount.Int64()
		return ev, true

	case topicCertificateMinted:
		if len(l.Topics) < 4 {
			return domain.LedgerEvent{}, false
		}
		ev.Kind = domain.EventCertificateMinted
		ev.TokenID = new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
		ev.ChainProjectID = new(big.Int).SetBytes(l.Topics[2].Bytes()).Uint64()
		ev.Owner = strings.ToLower(common.BytesToAddress(l.Topics[3].Bytes()).Hex())

		values, err := certificateABI.Unpack("CertificateMinted", l.Data)
		if err != nil || len(values) < 2 {
			return domain.LedgerEvent{}, false
		}
		amount, ok := values[0].(*big.Int)
		if !ok {
			return domain.LedgerEvent{}, false
		}
		uri, ok := values[1].(string)
		if !ok {
			return domain.LedgerEvent{}, false
		}
		ev.Amount = amount.Int64()
		ev.URI = uri
		return ev, true
	}

	return domain.LedgerEvent{}, false
}
