// Package pipeline runs rack photo analysis as a two-mode state machine.
//
// A run moves Idle → Detecting → Classifying and then, depending on the mode,
// through Associating or Enriching(cursor) to Ready. Only one run may be
// active at a time. A detector error ends in Failed and a cancelled context
// returns the controller to Idle. Neither disturbs the last Ready result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/rackscan/internal/association"
	"github.com/JaimeStill/rackscan/internal/enrichment"
	"github.com/JaimeStill/rackscan/internal/markings"
)

// Config holds the controller's initial mode and lookup failure strategy.
type Config struct {
	Mode     Mode
	Strategy enrichment.Strategy
}

// Controller owns the pipeline state and the last Ready result.
type Controller struct {
	detector Detector
	lookup   enrichment.Lookup
	strategy enrichment.Strategy
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	result *Result
	subs   map[int]chan State
	nextID int
}

// New creates a controller in the Idle phase.
func New(detector Detector, lookup enrichment.Lookup, cfg Config, logger *slog.Logger) (*Controller, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = CycleCount
	}
	if !mode.Valid() {
		return nil, invalidMode(mode)
	}

	strategy, err := enrichment.ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}

	return &Controller{
		detector: detector,
		lookup:   lookup,
		strategy: strategy,
		logger:   logger.With("system", "pipeline"),
		state:    State{Phase: Idle, Mode: mode},
		subs:     make(map[int]chan State),
	}, nil
}

// State returns the current state snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the last Ready result, or nil if no run has completed.
// The returned value must not be modified.
func (c *Controller) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// SetMode switches the mode used by subsequent runs.
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	if !mode.Valid() {
		return invalidMode(mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy {
		return ErrBusy
	}

	if c.state.Mode == mode {
		return nil
	}

	c.state.Mode = mode
	c.logger.InfoContext(ctx, "mode changed", "mode", mode)
	c.publish()
	return nil
}

// Subscribe returns a channel that receives every state change. A slow
// reader only observes the latest state. The cancel function closes the
// channel.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.state
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}

	return ch, cancel
}

// Analyze runs detection, classification and the current mode's processing
// on img. It returns ErrBusy if another run is active.
func (c *Controller) Analyze(ctx context.Context, img Image) (*Result, error) {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	mode := c.state.Mode
	c.transitionLocked(ctx, Detecting, 0)
	c.mu.Unlock()

	start := time.Now()

	detections, err := c.detector.Detect(ctx, img)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.abort(ctx, ctxErr)
		}
		c.transition(ctx, Failed, 0)
		c.logger.ErrorContext(ctx, "detection failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, c.abort(ctx, err)
	}

	result := newResult(mode)

	if len(detections) == 0 {
		return c.complete(ctx, result, start), nil
	}

	c.transition(ctx, Classifying, 0)
	locations, items := markings.Partition(detections)
	result.Locations = append(result.Locations, locations...)
	result.Items = append(result.Items, items...)

	switch mode {
	case CycleCount:
		c.transition(ctx, Associating, 0)
		result.Matches = association.Associate(result.Items, result.Locations)
	case Xray:
		cases, err := enrichment.Enrich(ctx, enrichment.NewCases(result.Items), c.lookup, enrichment.Options{
			Strategy:  c.strategy,
			OnAdvance: func(cursor int) { c.transition(ctx, Enriching, cursor) },
			Logger:    c.logger,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, c.abort(ctx, ctxErr)
			}
			c.transition(ctx, Failed, 0)
			c.logger.ErrorContext(ctx, "enrichment failed", "error", err)
			return nil, err
		}
		result.Cases = cases
	}

	return c.complete(ctx, result, start), nil
}

func (c *Controller) complete(ctx context.Context, result *Result, start time.Time) *Result {
	result.CompletedAt = time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.result = result
	c.transitionLocked(ctx, Ready, 0)

	c.logger.InfoContext(
		ctx, "analysis complete",
		"mode", result.Mode,
		"locations", len(result.Locations),
		"items", len(result.Items),
		"matched", result.MatchedCount(),
		"duration", time.Since(start),
	)

	return result
}

func (c *Controller) abort(ctx context.Context, err error) error {
	c.transition(ctx, Idle, 0)
	c.logger.WarnContext(ctx, "analysis cancelled", "error", err)
	return err
}

func (c *Controller) transition(ctx context.Context, phase Phase, cursor int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(ctx, phase, cursor)
}

// transitionLocked is the only writer of Phase, Cursor and Busy.
func (c *Controller) transitionLocked(ctx context.Context, phase Phase, cursor int) {
	c.state.Phase = phase
	c.state.Cursor = cursor
	c.state.Busy = phase.Busy()

	c.logger.DebugContext(ctx, "state transition", "phase", phase, "cursor", cursor, "busy", c.state.Busy)
	c.publish()
}

func (c *Controller) publish() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
}
