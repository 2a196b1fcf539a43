// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/thor"
)

// Service stores the fee configuration.
type Service struct {
	config *slot.Raw[*Config]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		config: slot.NewRaw[*Config](sctx, thor.KeyFeeConfig),
	}
}

func (s *Service) Get() (*Config, error) {
	cfg, err := s.config.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get fee config")
	}
	return cfg, nil
}

// Set validates and stores cfg.
func (s *Service) Set(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.config.Set(cfg); err != nil {
		return errors.Wrap(err, "failed to set fee config")
	}
	return nil
}
