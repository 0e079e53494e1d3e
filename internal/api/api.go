// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/rackscan/internal/config"
	"github.com/JaimeStill/rackscan/internal/infrastructure"
	"github.com/JaimeStill/rackscan/internal/pipeline"
	"github.com/JaimeStill/rackscan/pkg/middleware"
	"github.com/JaimeStill/rackscan/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	if cfg.API.Auth.Enabled {
		verifier, err := middleware.NewVerifier(infra.Lifecycle.Context(), &cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
		m.Use(middleware.Auth(verifier, runtime.Logger))
	}

	watchPipeline(runtime, domain.Pipeline)

	return m, nil
}

// watchPipeline logs every controller transition until shutdown.
func watchPipeline(runtime *Runtime, controller *pipeline.Controller) {
	logger := runtime.Logger.With("system", "pipeline-watch")

	runtime.Lifecycle.Go(func(ctx context.Context) {
		states, cancel := controller.Subscribe()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case s := <-states:
				logger.Debug("pipeline state",
					"phase", s.Phase,
					"mode", s.Mode,
					"cursor", s.Cursor,
				)
			}
		}
	})
}
