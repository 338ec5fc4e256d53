package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config se carga una sola vez en main y se pasa explícito hacia abajo.
// Nada en internal/domain lee variables de entorno.
type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	DBDSN string `envconfig:"DB_DSN"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	AppName   string `envconfig:"APP_NAME" default:"clinic-content-gateway"`

	Odin   OdinConfig
	Pinata PinataConfig
	Infura InfuraConfig
	IPFS   IPFSConfig
}

type OdinConfig struct {
	BaseURL string `envconfig:"ODIN_BASE_URL"`
	APIKey  string `envconfig:"ODIN_API_KEY"`
}

func (c OdinConfig) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.APIKey) != ""
}

type PinataConfig struct {
	JWT        string `envconfig:"PINATA_JWT"`
	APIKey     string `envconfig:"PINATA_API_KEY"`
	APISecret  string `envconfig:"PINATA_SECRET_API_KEY"`
	APIURL     string `envconfig:"PINATA_API_URL" default:"https://api.pinata.cloud"`
	GatewayURL string `envconfig:"PINATA_GATEWAY_URL" default:"https://gateway.pinata.cloud"`
}

type InfuraConfig struct {
	ProjectID     string `envconfig:"INFURA_PROJECT_ID"`
	ProjectSecret string `envconfig:"INFURA_PROJECT_SECRET"`
	APIURL        string `envconfig:"INFURA_API_URL" default:"https://ipfs.infura.io:5001"`
}

type IPFSConfig struct {
	Gateways      []string `envconfig:"IPFS_GATEWAYS" default:"https://ipfs.io,https://dweb.link,https://cloudflare-ipfs.com,https://gateway.pinata.cloud"`
	ProbeGateways []string `envconfig:"IPFS_PROBE_GATEWAYS" default:"https://ipfs.io,https://dweb.link,https://cloudflare-ipfs.com,https://gateway.pinata.cloud,https://w3s.link,https://nftstorage.link,https://4everland.io,https://ipfs.filebase.io"`
	OverridesFile string   `envconfig:"IPFS_OVERRIDES_FILE"`

	AttemptTimeout  time.Duration `envconfig:"IPFS_ATTEMPT_TIMEOUT" default:"10s"`
	ProviderTimeout time.Duration `envconfig:"IPFS_PROVIDER_TIMEOUT" default:"15s"`
	ProbeTimeout    time.Duration `envconfig:"IPFS_PROBE_TIMEOUT" default:"8s"`
	MaxContentBytes int64         `envconfig:"IPFS_MAX_CONTENT_BYTES" default:"52428800"`
}

// Load lee la configuración desde env.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if len(c.IPFS.Gateways) == 0 {
		return fmt.Errorf("config: IPFS_GATEWAYS must list at least one gateway")
	}
	if c.IPFS.AttemptTimeout <= 0 || c.IPFS.ProviderTimeout <= 0 || c.IPFS.ProbeTimeout <= 0 {
		return fmt.Errorf("config: ipfs timeouts must be positive")
	}
	if c.IPFS.MaxContentBytes <= 0 {
		return fmt.Errorf("config: IPFS_MAX_CONTENT_BYTES must be positive")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}
