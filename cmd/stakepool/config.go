// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"math/big"
	"os"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/thor"
)

// Operator is an account granted capabilities. No capabilities means all.
type Operator struct {
	Address      thor.Address           `yaml:"address"`
	Capabilities []stakepool.Capability `yaml:"capabilities,omitempty"`
}

// SimConfig drives the simulated staking mechanism and host.
type SimConfig struct {
	EpochSchedule      string        `yaml:"epoch-schedule"`
	RewardPerEpoch     string        `yaml:"reward-per-epoch"`
	StorageCredit      string        `yaml:"storage-credit"`
	DistributeInterval time.Duration `yaml:"distribute-interval"`
}

type Config struct {
	Owner     thor.Address `yaml:"owner"`
	Treasury  thor.Address `yaml:"treasury"`
	Online    bool         `yaml:"online"`
	Fees      fees.Config  `yaml:"fees"`
	Operators []Operator   `yaml:"operators"`
	// Distributor calls the periodic treasury distribution. Defaults to the
	// first operator allowed to distribute.
	Distributor *thor.Address `yaml:"distributor,omitempty"`
	Sim         SimConfig     `yaml:"sim"`
	DB          lvldb.Options `yaml:"db"`
}

func defaultConfig() *Config {
	operator := thor.BytesToAddress([]byte("operator"))
	return &Config{
		Owner:     thor.BytesToAddress([]byte("owner")),
		Treasury:  thor.BytesToAddress([]byte("treasury")),
		Online:    true,
		Fees:      fees.Config{StakingBPS: 50, EarningsBPS: 1000},
		Operators: []Operator{{Address: operator}},
		Sim: SimConfig{
			EpochSchedule:      "@every 1m",
			RewardPerEpoch:     "1000000000000000000",
			StorageCredit:      "0",
			DistributeInterval: time.Minute,
		},
		DB: lvldb.Options{CacheSize: 16, OpenFilesCacheCapacity: 64},
	}
}

// loadConfig reads the YAML file at path over the defaults. An empty path
// yields the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.Wrapf(err, "decode config %v", path)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Owner.IsZero() {
		return errors.New("owner: required")
	}
	if c.Treasury.IsZero() {
		return errors.New("treasury: required")
	}
	if err := c.Fees.Validate(); err != nil {
		return errors.WithMessage(err, "fees")
	}
	for _, op := range c.Operators {
		for _, capability := range op.Capabilities {
			if !slices.Contains(stakepool.Capabilities, capability) {
				return errors.Errorf("operator %v: unknown capability %q", op.Address, capability)
			}
		}
	}
	if _, err := c.RewardPerEpoch(); err != nil {
		return err
	}
	if _, err := c.StorageCredit(); err != nil {
		return err
	}
	if c.Sim.DistributeInterval < 0 {
		return errors.New("sim.distribute-interval: negative")
	}
	return nil
}

func parseAmount(name, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := math.ParseBig256(s)
	if !ok || !thor.IsValidAmount(v) {
		return nil, errors.Errorf("%v: invalid amount %q", name, s)
	}
	return v, nil
}

func (c *Config) RewardPerEpoch() (*big.Int, error) {
	return parseAmount("sim.reward-per-epoch", c.Sim.RewardPerEpoch)
}

func (c *Config) StorageCredit() (*big.Int, error) {
	return parseAmount("sim.storage-credit", c.Sim.StorageCredit)
}

// Grants maps every operator to its capabilities.
func (c *Config) Grants() map[thor.Address][]stakepool.Capability {
	grants := make(map[thor.Address][]stakepool.Capability, len(c.Operators))
	for _, op := range c.Operators {
		caps := op.Capabilities
		if len(caps) == 0 {
			caps = stakepool.Capabilities
		}
		grants[op.Address] = append(grants[op.Address], caps...)
	}
	return grants
}

// DistributorAddress returns the account the node distributes as, or false
// when nobody may distribute.
func (c *Config) DistributorAddress() (thor.Address, bool) {
	if c.Distributor != nil {
		return *c.Distributor, true
	}
	for _, op := range c.Operators {
		if len(op.Capabilities) == 0 || slices.Contains(op.Capabilities, stakepool.CapTreasuryDistribute) {
			return op.Address, true
		}
	}
	return thor.Address{}, false
}

func (c *Config) Genesis() *stakepool.Genesis {
	return &stakepool.Genesis{
		Owner:    c.Owner,
		Treasury: c.Treasury,
		Fees:     c.Fees,
		Online:   c.Online,
	}
}

func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
