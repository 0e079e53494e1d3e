package scans

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/rackscan/internal/overlay"
	"github.com/JaimeStill/rackscan/pkg/formatting"
	"github.com/JaimeStill/rackscan/pkg/handlers"
	"github.com/JaimeStill/rackscan/pkg/pagination"
	"github.com/JaimeStill/rackscan/pkg/routes"
)

// Handler provides HTTP endpoints for scans and the pipeline controller.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "scans"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group for scan endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/scans",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Analyze},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/image", Handler: h.Image},
			{Method: "GET", Pattern: "/{id}/overlay", Handler: h.Overlay},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// PipelineRoutes returns the route group for controller state and mode.
func (h *Handler) PipelineRoutes() routes.Group {
	return routes.Group{
		Prefix: "/pipeline",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.State},
			{Method: "GET", Pattern: "/result", Handler: h.Result},
			{Method: "PUT", Pattern: "/mode", Handler: h.SetMode},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scanID(w, r)
	if !ok {
		return
	}

	sc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sc)
}

// Analyze accepts a multipart upload with a "file" part and runs it through
// the pipeline. Returns 201 with the recorded scan.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: limit %s", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize, 0))
		} else {
			err = fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(contentType, "image/") {
		err := fmt.Errorf("%w: unsupported content type %s", ErrInvalidFile, contentType)
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	sc, err := h.sys.Analyze(r.Context(), AnalyzeCommand{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, sc)
}

// Image streams the stored photo of a scan.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scanID(w, r)
	if !ok {
		return
	}

	result, err := h.sys.Image(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, result.Body); err != nil {
		h.logger.Warn("image stream interrupted", "id", id, "error", err)
	}
}

// Overlay returns the scan result mapped onto a width × height surface.
func (h *Handler) Overlay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scanID(w, r)
	if !ok {
		return
	}

	width, werr := strconv.ParseFloat(r.URL.Query().Get("width"), 64)
	height, herr := strconv.ParseFloat(r.URL.Query().Get("height"), 64)
	if werr != nil || herr != nil {
		err := fmt.Errorf("%w: width and height are required", overlay.ErrInvalidSurface)
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	o, err := h.sys.Overlay(r.Context(), id, width, height)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, o)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scanID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// State returns a snapshot of the controller state.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Pipeline().State())
}

// Result returns the controller's most recent Ready result.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	result := h.sys.Pipeline().Result()
	if result == nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNoResult)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// SetMode switches the controller mode. Rejected with 409 while a run is in progress.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var cmd ModeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	p := h.sys.Pipeline()
	if err := p.SetMode(r.Context(), cmd.Mode); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p.State())
}

func (h *Handler) scanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidID, err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return uuid.Nil, false
	}
	return id, true
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}
