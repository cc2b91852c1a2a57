package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Sync      SyncConfig      `yaml:"sync"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Security  SecurityConfig  `yaml:"security"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	JWT       JWTConfig       `yaml:"jwt"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	URI            string        `yaml:"uri"`
	Name           string        `yaml:"name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// LedgerConfig carries the RPC endpoints, contract addresses and the signer
// key material sources. Exactly one of private_key, encrypted_key(+passphrase)
// or key_ref is expected; resolution order is fixed in the ledger package.
type LedgerConfig struct {
	RPCURL             string        `yaml:"rpc_url"`
	WSURL              string        `yaml:"ws_url"`
	ChainID            int64         `yaml:"chain_id"`
	ChainName          string        `yaml:"chain_name"`
	MarketplaceAddress string        `yaml:"marketplace_address"`
	CertificateAddress string        `yaml:"certificate_address"`
	PrivateKey         string        `yaml:"private_key"`
	EncryptedKey       string        `yaml:"encrypted_key"`
	KeyPassphrase      string        `yaml:"key_passphrase"`
	KeyRef             string        `yaml:"key_ref"`
	ConfirmTimeout     time.Duration `yaml:"confirm_timeout"`
}

type SyncConfig struct {
	BatchSize     uint64        `yaml:"batch_size"`
	DefaultWindow uint64        `yaml:"default_window"`
	Interval      time.Duration `yaml:"interval"`
	EventBuffer   int           `yaml:"event_buffer"`
}

type WalletConfig struct {
	ChallengeTTL time.Duration `yaml:"challenge_ttl"`
}

type SecurityConfig struct {
	APIKey string `yaml:"api_key"`
}

type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	CheckOrigin     bool          `yaml:"check_origin"`
	PingPeriod      time.Duration `yaml:"ping_period"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	var config Config
	configData, err := os.ReadFile("./config.yaml")
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 500
	}
	if c.Sync.DefaultWindow == 0 {
		c.Sync.DefaultWindow = 5000
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 2 * time.Minute
	}
	if c.Sync.EventBuffer == 0 {
		c.Sync.EventBuffer = 256
	}
	if c.Wallet.ChallengeTTL == 0 {
		c.Wallet.ChallengeTTL = 10 * time.Minute
	}
	if c.Ledger.ConfirmTimeout == 0 {
		c.Ledger.ConfirmTimeout = 90 * time.Second
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 10 * time.Second
	}
}
