package pinning

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
)

func TestPinCertificateMetadataDeterministic(t *testing.T) {
	pinner := NewLocalPinner(zerolog.Nop())
	meta := domain.CertificateMetadata{
		Name:        "Carbon retirement certificate - Mangrove Restoration",
		ProjectID:   "p1",
		Amount:      25,
		Beneficiary: "0x4444444444444444444444444444444444444444",
		RetiredAt:   "2026-09-01T00:00:00Z",
	}

	first, err := pinner.PinCertificateMetadata(context.Background(), meta)
	require.NoError(t, err)
	second, err := pinner.PinCertificateMetadata(context.Background(), meta)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical metadata pins to the identical URI")
	assert.True(t, strings.HasPrefix(first, "ipfs://"))
	assert.Equal(t, strings.ToLower(first), first)
}

func TestPinCertificateMetadataDistinguishesInput(t *testing.T) {
	pinner := NewLocalPinner(zerolog.Nop())
	base := domain.CertificateMetadata{ProjectID: "p1", Amount: 25}
	changed := base
	changed.Amount = 26

	first, err := pinner.PinCertificateMetadata(context.Background(), base)
	require.NoError(t, err)
	second, err := pinner.PinCertificateMetadata(context.Background(), changed)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
