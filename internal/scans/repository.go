package scans

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/rackscan/internal/overlay"
	"github.com/JaimeStill/rackscan/internal/pipeline"
	"github.com/JaimeStill/rackscan/pkg/pagination"
	"github.com/JaimeStill/rackscan/pkg/query"
	"github.com/JaimeStill/rackscan/pkg/repository"
	"github.com/JaimeStill/rackscan/pkg/storage"
)

var dbErrors = repository.ErrorMap{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidFile,
}

type repo struct {
	db         *sql.DB
	storage    storage.System
	pipeline   Pipeline
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the scans system over the given database, photo store, and
// pipeline controller.
func New(
	db *sql.DB,
	store storage.System,
	p Pipeline,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		pipeline:   p,
		logger:     logger.With("system", "scans"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) Pipeline() Pipeline {
	return r.pipeline
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Scan], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "StorageKey")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanScan)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Scan, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	sc, err := repository.QueryOne(ctx, r.db, q, args, scanScan)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &sc, nil
}

// Analyze uploads the photo while the controller analyzes it. If either
// fails, or the scan cannot be recorded, the uploaded blob is removed.
func (r *repo) Analyze(ctx context.Context, cmd AnalyzeCommand) (*Scan, error) {
	if len(cmd.Data) == 0 {
		return nil, ErrInvalidFile
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	var result *pipeline.Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := r.storage.Upload(gctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
			return fmt.Errorf("upload scan photo: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		res, err := r.pipeline.Analyze(gctx, pipeline.Image{
			Data:        cmd.Data,
			ContentType: cmd.ContentType,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	if err := g.Wait(); err != nil {
		r.compensate(ctx, key)
		return nil, err
	}

	sc, err := r.insert(ctx, id, key, cmd, result)
	if err != nil {
		r.compensate(ctx, key)
		return nil, err
	}

	r.logger.InfoContext(ctx, "scan recorded",
		"id", sc.ID,
		"filename", sc.Filename,
		"mode", sc.Mode,
		"locations", sc.LocationCount,
		"items", sc.ItemCount,
		"matched", sc.MatchedCount,
		"cases", sc.CaseCount,
	)
	return sc, nil
}

func (r *repo) Image(ctx context.Context, id uuid.UUID) (*storage.BlobResult, error) {
	sc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.storage.Download(ctx, sc.StorageKey)
}

func (r *repo) Overlay(ctx context.Context, id uuid.UUID, width, height float64) (*overlay.Overlay, error) {
	sc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	o, err := overlay.Build(&sc.Result, width, height)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	sc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM scans WHERE id = $1", id); err != nil {
		return dbErrors.Map(err)
	}

	if delErr := r.storage.Delete(ctx, sc.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", sc.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("scan deleted", "id", id)
	return nil
}

func (r *repo) insert(
	ctx context.Context,
	id uuid.UUID,
	key string,
	cmd AnalyzeCommand,
	result *pipeline.Result,
) (*Scan, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	q := `
		INSERT INTO scans(id, filename, content_type, size_bytes, storage_key, mode,
			location_count, item_count, matched_count, case_count, result, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + columns

	args := []any{
		id,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		key,
		string(result.Mode),
		len(result.Locations),
		len(result.Items),
		result.MatchedCount(),
		len(result.Cases),
		resultJSON,
		result.CompletedAt,
	}

	sc, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Scan, error) {
		return repository.QueryOne(ctx, tx, q, args, scanScan)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &sc, nil
}

func (r *repo) compensate(ctx context.Context, key string) {
	err := r.storage.Delete(context.WithoutCancel(ctx), key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("compensating blob delete failed", "key", key, "error", err)
	}
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("%s%s/%s", StoragePrefix, id, filename)
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(filepath.Base(name), "..", ".")
	if name == "." || name == "/" || name == "" {
		name = "photo"
	}
	return url.PathEscape(name)
}
