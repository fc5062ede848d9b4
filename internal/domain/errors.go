package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the filing pipeline. Adapters wrap their causes with one
// of these so callers can branch with errors.Is.
var (
	// ErrStoreUnavailable indicates the entry store could not be reached or queried.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrFetch indicates a transport failure while fetching a page.
	ErrFetch = errors.New("fetch failed")

	// ErrParse indicates an index page did not have the expected layout.
	// Usually means EDGAR changed the page, not a transient problem.
	ErrParse = errors.New("parse failed")

	// ErrRender indicates a document could not be rendered to text.
	ErrRender = errors.New("render failed")

	// ErrDiffTool indicates the diff engine itself failed.
	ErrDiffTool = errors.New("diff tool failed")

	// ErrStorage indicates the artifact could not be persisted or signed.
	ErrStorage = errors.New("storage failed")

	// ErrDispatch indicates the notification could not be sent.
	ErrDispatch = errors.New("dispatch failed")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrStoreUnavailable, "StoreUnavailable"},
	{ErrFetch, "FetchError"},
	{ErrParse, "ParseError"},
	{ErrRender, "RenderError"},
	{ErrDiffTool, "DiffToolError"},
	{ErrStorage, "StorageError"},
	{ErrDispatch, "DispatchError"},
	{ErrInvalidConfig, "InvalidConfig"},
}

// KindOf names the error kind wrapped by err, or "Unknown".
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}

// Stage names the step at which processing of an entry stopped.
type Stage string

const (
	StageLineage  Stage = "lineage"
	StageResolve  Stage = "resolve"
	StageDiff     Stage = "diff"
	StageArtifact Stage = "artifact"
	StagePublish  Stage = "publish"
	StageNotify   Stage = "notify"
)

// ProcessingError ties a failure to the entry it aborted.
type ProcessingError struct {
	GUID  string
	Stage Stage
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("entry %s: %s: %v", e.GUID, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
