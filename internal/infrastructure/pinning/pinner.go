package pinning

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

// Pinner content-addresses certificate metadata before a ledger call
// references it by URI.
type Pinner interface {
	PinCertificateMetadata(ctx context.Context, meta domain.CertificateMetadata) (string, error)
}

// LocalPinner derives a deterministic pseudo content id from a hash of the
// serialized metadata. It stands in for a real pinning backend; identical
// input always yields the identical URI.
type LocalPinner struct {
	logger zerolog.Logger
}

func NewLocalPinner(logger zerolog.Logger) *LocalPinner {
	return &LocalPinner{logger: logger}
}

func (p *LocalPinner) PinCertificateMetadata(_ context.Context, meta domain.CertificateMetadata) (string, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to serialize certificate metadata: %w", err)
	}

	sum := sha256.Sum256(payload)
	cid := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:]))
	uri := "ipfs://" + cid

	p.logger.Debug().
		Str("uri", uri).
		Str("project_id", meta.ProjectID).
		Msg("Pinned certificate metadata")
	return uri, nil
}
