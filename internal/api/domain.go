package api

import (
	"fmt"

	"github.com/JaimeStill/rackscan/internal/config"
	"github.com/JaimeStill/rackscan/internal/contents"
	"github.com/JaimeStill/rackscan/internal/detector"
	"github.com/JaimeStill/rackscan/internal/enrichment"
	"github.com/JaimeStill/rackscan/internal/lookup"
	"github.com/JaimeStill/rackscan/internal/pipeline"
	"github.com/JaimeStill/rackscan/internal/scans"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Contents contents.System
	Scans    scans.System
	Pipeline *pipeline.Controller
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	contentsSystem := contents.New(
		runtime.Database.Connection(),
		runtime.Cache,
		runtime.Logger,
		runtime.Pagination,
	)

	source := lookupSource(cfg, runtime, contentsSystem)

	controller, err := pipeline.New(
		detector.New(&cfg.Detector, runtime.Logger),
		source,
		pipeline.Config{
			Mode:     pipeline.Mode(cfg.Pipeline.Mode),
			Strategy: enrichment.Strategy(cfg.Pipeline.LookupFailure),
		},
		runtime.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("pipeline init failed: %w", err)
	}

	scansSystem := scans.New(
		runtime.Database.Connection(),
		runtime.Storage,
		controller,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Contents: contentsSystem,
		Scans:    scansSystem,
		Pipeline: controller,
	}, nil
}

// lookupSource selects where X-ray enrichment reads case contents, placing
// the cache in front when one is configured.
func lookupSource(cfg *config.Config, runtime *Runtime, contentsSystem contents.System) enrichment.Lookup {
	var source enrichment.Lookup = contentsSystem
	if cfg.Pipeline.LookupSource == config.LookupSourceRemote {
		source = lookup.NewRemote(&cfg.Lookup, runtime.Logger)
	}

	if runtime.Cache == nil || cfg.Lookup.CacheTTLDuration() <= 0 {
		return source
	}
	return lookup.NewCached(source, runtime.Cache, cfg.Lookup.CacheTTLDuration(), runtime.Logger)
}
