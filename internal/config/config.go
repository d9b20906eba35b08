// internal/config/config.go
package config

import (
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// DBConfig is read from the DB_* variables.
type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	MaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

// DSN returns a postgres URL for lib/pq and golang-migrate.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// ChainConfig is everything the reconciler and the workflows need to reach
// the contracts. Fields are validated where they are used.
type ChainConfig struct {
	RPCURL              string `env:"RPC_URL"`
	ChainID             int64  `env:"CHAIN_ID" envDefault:"44787"`
	ChainName           string `env:"CHAIN_NAME" envDefault:"Celo Alfajores Testnet"`
	NativeCurrency      string `env:"NATIVE_CURRENCY" envDefault:"CELO"`
	ExplorerURL         string `env:"EXPLORER_URL" envDefault:"https://alfajores.celoscan.io/"`
	CampaignInfoFactory string `env:"CAMPAIGN_INFO_FACTORY"`
	GlobalParams        string `env:"GLOBAL_PARAMS"`
	TreasuryFactory     string `env:"TREASURY_FACTORY"`
	PlatformHash        string `env:"PLATFORM_HASH"`
	PledgeToken         string `env:"PLEDGE_TOKEN"`
}

// ChainIDBig returns the chain id as *big.Int for go-ethereum calls.
func (c ChainConfig) ChainIDBig() *big.Int {
	return big.NewInt(c.ChainID)
}

// WalletConfig selects the operator wallet for cmd/admin.
type WalletConfig struct {
	RPCURL     string `env:"WALLET_RPC_URL"`
	PrivateKey string `env:"WALLET_PRIVATE_KEY"`
}

type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	APIURL        string `env:"API_URL" envDefault:"http://localhost:8080"`
	AMQPURL       string `env:"AMQP_URL"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"public"`
	PlatformAdmin string `env:"PLATFORM_ADMIN"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	DB     DBConfig
	Chain  ChainConfig
	Wallet WalletConfig
}

// Load reads .env when present and parses the environment into Config.
func Load() (*Config, error) {
	// .env is optional; OS environment wins either way
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.PlatformAdmin = strings.TrimSpace(cfg.PlatformAdmin)
	return cfg, nil
}

// NewLogger builds a production zap logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = lvl
	return cfg.Build()
}
