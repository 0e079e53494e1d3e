package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/JaimeStill/rackscan/internal/scans"
	"github.com/JaimeStill/rackscan/pkg/handlers"
	"github.com/JaimeStill/rackscan/pkg/routes"
	"github.com/JaimeStill/rackscan/pkg/storage"
)

// photoHandler exposes the stored scan photos directly from blob storage.
// Keys are always resolved under the scans prefix.
type photoHandler struct {
	store       storage.System
	logger      *slog.Logger
	maxListSize int32
}

func newPhotoHandler(
	store storage.System,
	logger *slog.Logger,
	maxListSize int32,
) *photoHandler {
	return &photoHandler{
		store:       store,
		logger:      logger.With("handler", "photos"),
		maxListSize: maxListSize,
	}
}

func (h *photoHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/photos",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
			{Method: "GET", Pattern: "/{key...}", Handler: h.find},
		},
	}
}

func (h *photoHandler) list(w http.ResponseWriter, r *http.Request) {
	maxResults, err := storage.ParseMaxResults(
		r.URL.Query().Get("max_results"),
		h.maxListSize,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.store.List(
		r.Context(),
		photoKey(r.URL.Query().Get("prefix")),
		r.URL.Query().Get("marker"),
		maxResults,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *photoHandler) find(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.Find(r.Context(), photoKey(r.PathValue("key")))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, meta)
}

func (h *photoHandler) download(w http.ResponseWriter, r *http.Request) {
	key := photoKey(r.PathValue("key"))

	result, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, result.Body)
}

// photoKey scopes a client-supplied key or prefix to the scans namespace.
func photoKey(key string) string {
	return scans.StoragePrefix + strings.TrimPrefix(key, scans.StoragePrefix)
}
