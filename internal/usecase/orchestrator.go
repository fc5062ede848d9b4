package usecase

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// Action is what the orchestrator does with a classified entry.
type Action int

const (
	ActionIgnore Action = iota
	ActionNotifyOnly
	ActionDiffAndNotify
)

func (a Action) String() string {
	switch a {
	case ActionNotifyOnly:
		return "notify-only"
	case ActionDiffAndNotify:
		return "diff-and-notify"
	default:
		return "ignored"
	}
}

// Decision is the classified entry together with the action chosen for it.
type Decision struct {
	Type   domain.FilingType
	Action Action
}

// Policy lists the filing types that trigger each action. DiffAndNotify wins
// when a type appears in both lists.
type Policy struct {
	DiffAndNotify []domain.FilingType
	NotifyOnly    []domain.FilingType
}

// Decide classifies an entry title and picks its action.
func (p Policy) Decide(entry domain.FilingEntry) Decision {
	t := entry.Type()
	switch {
	case slices.Contains(p.DiffAndNotify, t):
		return Decision{Type: t, Action: ActionDiffAndNotify}
	case slices.Contains(p.NotifyOnly, t):
		return Decision{Type: t, Action: ActionNotifyOnly}
	default:
		return Decision{Type: t, Action: ActionIgnore}
	}
}

// Timeouts bound the orchestrator's own blocking steps. Zero means unbounded.
type Timeouts struct {
	Store   time.Duration
	Fetch   time.Duration
	Publish time.Duration
	Notify  time.Duration
}

// OrchestratorDeps wires every collaborator of the orchestrator.
type OrchestratorDeps struct {
	Policy     Policy
	Lineage    *LineageResolver
	Links      ports.DocumentLinkResolver
	Diffs      *DiffPipeline
	Publisher  *ArtifactPublisher
	Dispatcher *NotificationDispatcher
	Reporter   ports.ErrorReporter
	Timeouts   Timeouts
	Logger     *slog.Logger
}

// Orchestrator drives one event from classification to notification.
type Orchestrator struct {
	policy     Policy
	lineage    *LineageResolver
	links      ports.DocumentLinkResolver
	diffs      *DiffPipeline
	publisher  *ArtifactPublisher
	dispatcher *NotificationDispatcher
	reporter   ports.ErrorReporter
	timeouts   Timeouts
	logger     *slog.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		policy:     deps.Policy,
		lineage:    deps.Lineage,
		links:      deps.Links,
		diffs:      deps.Diffs,
		publisher:  deps.Publisher,
		dispatcher: deps.Dispatcher,
		reporter:   deps.Reporter,
		timeouts:   deps.Timeouts,
		logger:     logger,
	}
}

// Decide exposes the configured policy.
func (o *Orchestrator) Decide(entry domain.FilingEntry) Decision {
	return o.policy.Decide(entry)
}

// Handle processes one event. Failures are reported with the entry's guid and returned;
// nothing is dispatched for an entry whose processing failed before notification.
func (o *Orchestrator) Handle(ctx context.Context, ev domain.Event) error {
	decision := o.policy.Decide(ev.Entry)
	logger := o.logger.With("guid", ev.Entry.GUID, "feed", ev.Feed.URL, "filing_type", string(decision.Type), "action", decision.Action.String())

	var err error
	switch decision.Action {
	case ActionIgnore:
		logger.Debug("entry ignored")
		return nil
	case ActionNotifyOnly:
		err = o.notify(ctx, ev, "")
	case ActionDiffAndNotify:
		err = o.diffAndNotify(ctx, ev, logger)
	}

	if err != nil {
		o.Report(ctx, ev.Entry, err)
		return err
	}
	logger.Info("entry processed")
	return nil
}

// Report forwards a failure to the configured reporter.
func (o *Orchestrator) Report(ctx context.Context, entry domain.FilingEntry, err error) {
	if o.reporter == nil {
		o.logger.Error("entry failed", "guid", entry.GUID, "error", err)
		return
	}
	o.reporter.Report(ctx, entry, err)
}

func (o *Orchestrator) diffAndNotify(ctx context.Context, ev domain.Event, logger *slog.Logger) error {
	previous, found, err := o.findPrevious(ctx, ev)
	if err != nil {
		return stageError(ev.Entry, domain.StageLineage, err)
	}
	if !found {
		logger.Info("no earlier filing of this type, notifying without diff")
		return o.notify(ctx, ev, "")
	}
	logger = logger.With("previous_guid", previous.GUID)

	newDoc, err := o.resolve(ctx, ev.Entry)
	if err != nil {
		return stageError(ev.Entry, domain.StageResolve, err)
	}
	oldDoc, err := o.resolve(ctx, previous)
	if err != nil {
		return stageError(ev.Entry, domain.StageResolve, err)
	}

	result, err := o.diffs.BuildDiff(ctx, oldDoc, newDoc)
	if err != nil {
		return stageError(ev.Entry, domain.StageDiff, err)
	}
	if !result.Changed {
		logger.Info("documents are identical, notifying without diff", "old_document", oldDoc, "new_document", newDoc)
		return o.notify(ctx, ev, "")
	}

	artifact, err := o.diffs.RenderArtifact(ev.Entry, result)
	if err != nil {
		return stageError(ev.Entry, domain.StageArtifact, err)
	}

	pctx, cancel := withTimeout(ctx, o.timeouts.Publish)
	ref, err := o.publisher.Publish(pctx, artifact)
	cancel()
	if err != nil {
		return stageError(ev.Entry, domain.StagePublish, err)
	}
	artifact.RetrievalReference = ref
	logger.Debug("artifact published", "filename", artifact.Filename)

	return o.notify(ctx, ev, artifact.RetrievalReference)
}

func (o *Orchestrator) findPrevious(ctx context.Context, ev domain.Event) (domain.FilingEntry, bool, error) {
	sctx, cancel := withTimeout(ctx, o.timeouts.Store)
	defer cancel()
	return o.lineage.FindPrevious(sctx, ev.Entry, ev.Feed)
}

func (o *Orchestrator) resolve(ctx context.Context, entry domain.FilingEntry) (string, error) {
	fctx, cancel := withTimeout(ctx, o.timeouts.Fetch)
	defer cancel()
	return o.links.ResolveDocument(fctx, entry)
}

func (o *Orchestrator) notify(ctx context.Context, ev domain.Event, diffRef string) error {
	nctx, cancel := withTimeout(ctx, o.timeouts.Notify)
	defer cancel()
	if err := o.dispatcher.Notify(nctx, ev.Entry, ev.Feed, diffRef); err != nil {
		return stageError(ev.Entry, domain.StageNotify, err)
	}
	return nil
}

func stageError(entry domain.FilingEntry, stage domain.Stage, err error) error {
	return &domain.ProcessingError{GUID: entry.GUID, Stage: stage, Err: err}
}
