package scans

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/rackscan/internal/overlay"
	"github.com/JaimeStill/rackscan/internal/pipeline"
	"github.com/JaimeStill/rackscan/pkg/pagination"
	"github.com/JaimeStill/rackscan/pkg/storage"
)

// Pipeline is the controller surface the scans domain drives.
// *pipeline.Controller satisfies it.
type Pipeline interface {
	Analyze(ctx context.Context, img pipeline.Image) (*pipeline.Result, error)
	State() pipeline.State
	Result() *pipeline.Result
	SetMode(ctx context.Context, mode pipeline.Mode) error
}

// System defines the public contract for scan domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler
	Pipeline() Pipeline

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Scan], error)

	Find(ctx context.Context, id uuid.UUID) (*Scan, error)
	Analyze(ctx context.Context, cmd AnalyzeCommand) (*Scan, error)
	Image(ctx context.Context, id uuid.UUID) (*storage.BlobResult, error)
	Overlay(ctx context.Context, id uuid.UUID, width, height float64) (*overlay.Overlay, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
