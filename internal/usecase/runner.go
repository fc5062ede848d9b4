package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

const defaultReceiveBackoff = time.Second

// RunnerOptions tunes event concurrency.
type RunnerOptions struct {
	Concurrency  int
	EventTimeout time.Duration
	Logger       *slog.Logger

	// AfterEvent, if set, runs once an event has been handled, with its outcome.
	AfterEvent func(ctx context.Context, ev domain.Event, err error)
}

// Runner feeds events from an entry source into the orchestrator.
type Runner struct {
	source         ports.EntrySource
	orchestrator   *Orchestrator
	concurrency    int
	eventTimeout   time.Duration
	receiveBackoff time.Duration
	afterEvent     func(ctx context.Context, ev domain.Event, err error)
	logger         *slog.Logger
}

// NewRunner builds a runner; concurrency defaults to 1.
func NewRunner(source ports.EntrySource, orchestrator *Orchestrator, opts RunnerOptions) *Runner {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		source:         source,
		orchestrator:   orchestrator,
		concurrency:    concurrency,
		eventTimeout:   opts.EventTimeout,
		receiveBackoff: defaultReceiveBackoff,
		afterEvent:     opts.AfterEvent,
		logger:         logger,
	}
}

// Run consumes until ctx is cancelled or the source is exhausted, then waits
// for in-flight events. Per-event failures never stop the loop; a broken source
// does, and its error is returned.
func (r *Runner) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	var runErr error
	for {
		delivery, err := r.source.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				break
			}
			if errors.Is(err, ports.ErrSourceBroken) {
				r.logger.Error("entry source broken", "error", err)
				runErr = err
				break
			}
			r.logger.Error("receive event", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(r.receiveBackoff):
			}
			continue
		}

		// acknowledged before processing: a failed event is not redelivered
		if delivery.Ack != nil {
			if err := delivery.Ack(ctx); err != nil {
				r.logger.Warn("ack event", "guid", delivery.Event.Entry.GUID, "error", err)
			}
		}

		ev := delivery.Event
		g.Go(func() error {
			r.process(ctx, ev)
			return nil
		})
	}

	_ = g.Wait()
	r.logger.Info("runner stopped")
	return runErr
}

func (r *Runner) process(ctx context.Context, ev domain.Event) {
	id := ulid.Make().String()
	logger := r.logger.With("event_id", id, "guid", ev.Entry.GUID)
	started := time.Now()

	ectx, cancel := withTimeout(ctx, r.eventTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic while processing entry: %v", rec)
			logger.Error("event panicked", "error", err)
			r.orchestrator.Report(ctx, ev.Entry, err)
		}
	}()

	logger.Debug("event received", "title", ev.Entry.Title)
	err := r.orchestrator.Handle(ectx, ev)
	if err != nil {
		logger.Debug("event failed", "duration", time.Since(started), "error", err)
	} else {
		logger.Debug("event done", "duration", time.Since(started))
	}
	if r.afterEvent != nil {
		r.afterEvent(ctx, ev, err)
	}
}
