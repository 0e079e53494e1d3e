package api

import (
	"github.com/JaimeStill/rackscan/internal/config"
	"github.com/JaimeStill/rackscan/internal/infrastructure"
	"github.com/JaimeStill/rackscan/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	MaxListSize int32
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Cache:     infra.Cache,
		},
		Pagination:  cfg.API.Pagination,
		MaxListSize: cfg.Storage.MaxListSize,
	}
}
