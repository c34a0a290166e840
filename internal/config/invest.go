package config

import (
	"cmp"
	"fmt"
	"os"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"
)

const (
	_investConfigPathDefault = "./configs/invest.yaml"
	_investTokenEnvDefault   = "T_INVEST_API_TOKEN"
	_investAppName           = "portfolio-tracker"
)

type TInvestConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ConfigPath string `yaml:"config_path"`
	// TokenEnv names the environment variable holding the api token.
	TokenEnv string `yaml:"token_env"`
}

func (c *TInvestConfig) Setup() {
	c.ConfigPath = cmp.Or(c.ConfigPath, _investConfigPathDefault)
	c.TokenEnv = cmp.Or(c.TokenEnv, _investTokenEnvDefault)
}

// LoadInvestConfig reads the SDK config file and takes the token from the
// configured environment variable. Tokens are never read from the file.
func LoadInvestConfig(c TInvestConfig) (investgo.Config, error) {
	c.Setup()

	cfg, err := investgo.LoadConfig(c.ConfigPath)
	if err != nil {
		return investgo.Config{}, fmt.Errorf("%w: can't load t-invest config", err)
	}

	cfg.Token = os.Getenv(c.TokenEnv)
	if cfg.Token == "" {
		return investgo.Config{}, fmt.Errorf("empty t-invest api token in %s", c.TokenEnv)
	}
	cfg.AppName = cmp.Or(cfg.AppName, _investAppName)

	return cfg, nil
}
