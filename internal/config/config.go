// Package config loads the daemon configuration from a TOML file, with
// environment variable overrides under the AUCTION_ prefix.
package config

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Chain   ChainCfg   `toml:"chain" mapstructure:"chain"`
	IPFS    IPFSCfg    `toml:"ipfs" mapstructure:"ipfs"`
	Account AccountCfg `toml:"account" mapstructure:"account"`
	Log     LogCfg     `toml:"log" mapstructure:"log"`
	Monitor MonitorCfg `toml:"monitor" mapstructure:"monitor"`
}

// ChainCfg holds the RPC endpoints and contract addresses.
type ChainCfg struct {
	HTTPURL        string `toml:"http_url" mapstructure:"http_url"`
	WebsocketURL   string `toml:"websocket_url" mapstructure:"websocket_url"`
	AuctionHouse   string `toml:"auction_house" mapstructure:"auction_house"`
	CuratorAddress string `toml:"curator_address" mapstructure:"curator_address"`
}

// IPFSCfg holds the metadata gateway endpoint.
type IPFSCfg struct {
	GatewayURL string `toml:"gateway_url" mapstructure:"gateway_url"`
}

// AccountCfg holds the optional active account. An empty address runs the
// daemon in read-only mode: escrowed bids report zero and no transactions
// can be submitted.
type AccountCfg struct {
	Address string `toml:"address" mapstructure:"address"`
}

// LogCfg holds the logging configuration.
type LogCfg struct {
	Level string `toml:"level" mapstructure:"level"`
}

// MonitorCfg holds the metrics and pprof listener configuration.
type MonitorCfg struct {
	MetricsAddr string `toml:"metrics_addr" mapstructure:"metrics_addr"`
	PprofEnable bool   `toml:"pprof_enable" mapstructure:"pprof_enable"`
	PprofAddr   string `toml:"pprof_addr" mapstructure:"pprof_addr"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("AUCTION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks required fields and address formats.
func (c *Config) Validate() error {
	if c.Chain.HTTPURL == "" {
		return errors.New("chain.http_url is required")
	}
	if c.Chain.WebsocketURL == "" {
		return errors.New("chain.websocket_url is required")
	}
	if !common.IsHexAddress(c.Chain.AuctionHouse) {
		return errors.Errorf("chain.auction_house %q is not a hex address", c.Chain.AuctionHouse)
	}
	if !common.IsHexAddress(c.Chain.CuratorAddress) {
		return errors.Errorf("chain.curator_address %q is not a hex address", c.Chain.CuratorAddress)
	}
	if c.IPFS.GatewayURL == "" {
		return errors.New("ipfs.gateway_url is required")
	}
	if c.Account.Address != "" && !common.IsHexAddress(c.Account.Address) {
		return errors.Errorf("account.address %q is not a hex address", c.Account.Address)
	}
	return nil
}

// AccountAddress returns the configured account, or nil in read-only mode.
func (c *Config) AccountAddress() *common.Address {
	if c.Account.Address == "" {
		return nil
	}
	addr := common.HexToAddress(c.Account.Address)
	return &addr
}
