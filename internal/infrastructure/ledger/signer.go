package ledger

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/scrypt"

	"github.com/JAYDOLAR/GreenCommunity-sub001/internal/domain"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	saltLen      = 16
	gcmNonceLen  = 12
	derivedKeyLn = 32
)

// Signer is the process-wide signing identity. It is resolved once from the
// configured secret sources and cached by the gateway for the process
// lifetime; it is never persisted.
type Signer struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// ResolveSigner produces the signing identity from the first matching
// source: a plaintext key, an encrypted blob plus passphrase, or an external
// key reference. Key references are deliberately not executed here; without
// a vetted execution sandbox they fail closed with a configuration error.
func ResolveSigner(cfg *config.LedgerConfig) (*Signer, error) {
	switch {
	case cfg.PrivateKey != "":
		return signerFromHex(cfg.PrivateKey)
	case cfg.EncryptedKey != "":
		if cfg.KeyPassphrase == "" {
			return nil, domain.NewConfigError("ledger.key_passphrase", "encrypted_key is set but no passphrase was provided")
		}
		keyHex, err := decryptKey(cfg.EncryptedKey, cfg.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt signer key: %w", err)
		}
		return signerFromHex(keyHex)
	case cfg.KeyRef != "":
		return nil, domain.NewConfigError("ledger.key_ref", "external key references require a vetted secret-execution backend, which is not available")
	default:
		return nil, domain.NewConfigError("ledger", "no signer key source configured")
	}
}

func signerFromHex(keyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer key: %w", err)
	}
	return &Signer{
		Key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// decryptKey opens a base64(salt || nonce || ciphertext) AES-256-GCM blob
// with an scrypt-derived key. A bad passphrase or tampered blob surfaces as
// a hard error, never as a silently empty key.
func decryptKey(blob, passphrase string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted key: %w", err)
	}
	if len(raw) < saltLen+gcmNonceLen+1 {
		return "", fmt.Errorf("encrypted key blob too short: %d bytes", len(raw))
	}

	salt := raw[:saltLen]
	nonce := raw[saltLen : saltLen+gcmNonceLen]
	ciphertext := raw[saltLen+gcmNonceLen:]

	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, derivedKeyLn)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open encrypted key: %w", err)
	}
	return string(plaintext), nil
}

// EncryptKey is the inverse of the resolver's encrypted-key path; it exists
// for provisioning tooling and tests.
func EncryptKey(keyHex, passphrase string, salt, nonce []byte) (string, error) {
	if len(salt) != saltLen || len(nonce) != gcmNonceLen {
		return "", fmt.Errorf("salt must be %d bytes and nonce %d bytes", saltLen, gcmNonceLen)
	}

	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, derivedKeyLn)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build gcm: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(keyHex), nil)
	raw := make([]byte, 0, saltLen+gcmNonceLen+len(sealed))
	raw = append(raw, salt...)
	raw = append(raw, nonce...)
	raw = append(raw, sealed...)
	return base64.StdEncoding.EncodeToString(raw), nil
}
