package contents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/rackscan/internal/lookup"
	"github.com/JaimeStill/rackscan/pkg/cache"
	"github.com/JaimeStill/rackscan/pkg/geometry"
	"github.com/JaimeStill/rackscan/pkg/pagination"
	"github.com/JaimeStill/rackscan/pkg/query"
	"github.com/JaimeStill/rackscan/pkg/repository"
)

const returning = `RETURNING case_name, sub_items, updated_at`

var dbErrors = repository.ErrorMap{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidCase,
}

type repo struct {
	db         *sql.DB
	cache      cache.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the contents system. When c is non-nil, cached lookup
// entries are dropped whenever a case is saved or deleted.
func New(
	db *sql.DB,
	c cache.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		cache:      c,
		logger:     logger.With("system", "contents"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Case], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "CaseName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count case contents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCase)
	if err != nil {
		return nil, fmt.Errorf("query case contents: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, caseName string) (*Case, error) {
	name, err := normalizeCaseName(caseName)
	if err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection).BuildSingle("CaseName", name)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCase)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &c, nil
}

func (r *repo) Save(ctx context.Context, caseName string, cmd SaveCommand) (*Case, error) {
	name, err := normalizeCaseName(caseName)
	if err != nil {
		return nil, err
	}

	items, err := cmd.normalize()
	if err != nil {
		return nil, err
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal sub_items: %w", err)
	}

	upsertQ := `
		INSERT INTO case_contents (case_name, sub_items)
		VALUES ($1, $2)
		ON CONFLICT (case_name) DO UPDATE SET
			sub_items = EXCLUDED.sub_items,
			updated_at = NOW()
		` + returning

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Case, error) {
		return repository.QueryOne(ctx, tx, upsertQ, []any{name, itemsJSON}, scanCase)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.invalidate(ctx, name)
	r.logger.Info("case contents saved", "case", name, "sub_items", len(c.SubItems))
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, caseName string) error {
	name, err := normalizeCaseName(caseName)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(
		ctx, r.db,
		"DELETE FROM case_contents WHERE case_name = $1",
		name,
	); err != nil {
		return dbErrors.Map(err)
	}

	r.invalidate(ctx, name)
	r.logger.Info("case contents deleted", "case", name)
	return nil
}

func (r *repo) LookupContents(ctx context.Context, caseName string, _ geometry.Quad) ([]string, error) {
	c, err := r.Find(ctx, caseName)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidCase) {
			return []string{}, nil
		}
		return nil, err
	}
	return c.SubItems, nil
}

func (r *repo) invalidate(ctx context.Context, caseName string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, lookup.Key(caseName)); err != nil {
		r.logger.WarnContext(ctx, "cache invalidation failed", "case", caseName, "error", err)
	}
}
