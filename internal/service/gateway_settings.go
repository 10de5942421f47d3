package service

import (
	"strconv"

	"paygate/config"
	"paygate/internal/repository"
	"paygate/pkg/paypal"
)

// Setting keys recognised in gateway_settings. A row with one of these keys
// overrides the env default.
const (
	SettingUseSandbox = "paypal.use_sandbox"
	SettingPdtToken   = "paypal.pdt_token"
)

// GatewaySettings resolves gateway configuration per call: DB override first,
// env default otherwise. It implements paypal.Settings.
type GatewaySettings struct {
	cfg  *config.PayPalConfig
	repo *repository.SettingRepository
}

func NewGatewaySettings(cfg *config.PayPalConfig, repo *repository.SettingRepository) *GatewaySettings {
	return &GatewaySettings{cfg: cfg, repo: repo}
}

func (s *GatewaySettings) UseSandbox() bool {
	if v, err := s.repo.Get(SettingUseSandbox); err == nil {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return s.cfg.UseSandbox
}

func (s *GatewaySettings) PdtToken() string {
	if v, err := s.repo.Get(SettingPdtToken); err == nil && v != "" {
		return v
	}
	return s.cfg.PdtToken
}

func (s *GatewaySettings) Endpoint() string {
	if s.UseSandbox() {
		return paypal.SandboxURL
	}
	return paypal.LiveURL
}
