package api

import (
	"net/http"

	"github.com/JaimeStill/rackscan/internal/config"
	"github.com/JaimeStill/rackscan/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	scansHandler := domain.Scans.Handler(cfg.API.MaxUploadSizeBytes())
	photos := newPhotoHandler(runtime.Storage, runtime.Logger, runtime.MaxListSize)

	groups := []routes.Group{
		scansHandler.Routes(),
		scansHandler.PipelineRoutes(),
		domain.Contents.Handler().Routes(),
		photos.routes(),
	}
	routes.Register(mux, groups...)

	for _, g := range groups {
		runtime.Logger.Debug("routes registered", "prefix", g.Prefix, "patterns", g.Patterns())
	}
}
