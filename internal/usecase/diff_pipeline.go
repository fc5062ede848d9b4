package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// DiffPipelineDeps wires the renderer, diff engine and artifact renderer.
type DiffPipelineDeps struct {
	Renderer  ports.DocumentRenderer
	Engine    ports.DiffEngine
	Artifacts ports.ArtifactRenderer
	Logger    *slog.Logger

	// ScratchDir holds the rendered text while a diff runs. Defaults to os.TempDir().
	ScratchDir    string
	RenderTimeout time.Duration
	DiffTimeout   time.Duration
}

// DiffPipeline renders two filing documents and compares them.
type DiffPipeline struct {
	renderer      ports.DocumentRenderer
	engine        ports.DiffEngine
	artifacts     ports.ArtifactRenderer
	scratchDir    string
	renderTimeout time.Duration
	diffTimeout   time.Duration
	logger        *slog.Logger
}

// NewDiffPipeline constructs the pipeline.
func NewDiffPipeline(deps DiffPipelineDeps) *DiffPipeline {
	dir := deps.ScratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DiffPipeline{
		renderer:      deps.Renderer,
		engine:        deps.Engine,
		artifacts:     deps.Artifacts,
		scratchDir:    dir,
		renderTimeout: deps.RenderTimeout,
		diffTimeout:   deps.DiffTimeout,
		logger:        logger,
	}
}

// BuildDiff renders both documents and diffs them with the old document as base
// and the new one as target.
func (p *DiffPipeline) BuildDiff(ctx context.Context, oldDocURL, newDocURL string) (domain.DiffResult, error) {
	oldText, err := p.render(ctx, oldDocURL)
	if err != nil {
		return domain.DiffResult{}, err
	}
	newText, err := p.render(ctx, newDocURL)
	if err != nil {
		return domain.DiffResult{}, err
	}

	basePath, err := p.writeBuffer(oldText)
	if err != nil {
		return domain.DiffResult{}, err
	}
	defer p.release(basePath)

	targetPath, err := p.writeBuffer(newText)
	if err != nil {
		return domain.DiffResult{}, err
	}
	defer p.release(targetPath)

	dctx, cancel := withTimeout(ctx, p.diffTimeout)
	defer cancel()

	result, err := p.engine.Diff(dctx, basePath, targetPath)
	if err != nil {
		return domain.DiffResult{}, asKind(domain.ErrDiffTool, err, "diff %s against %s", newDocURL, oldDocURL)
	}

	p.logger.Debug("diff computed", "base", oldDocURL, "target", newDocURL, "changed", result.Changed, "bytes", len(result.Text))
	return result, nil
}

// RenderArtifact turns a diff result into the HTML artifact stored for entry.
func (p *DiffPipeline) RenderArtifact(entry domain.FilingEntry, result domain.DiffResult) (domain.DiffArtifact, error) {
	title := entry.Title
	if entry.FeedTitle != "" {
		title = entry.FeedTitle + ": " + entry.Title
	}

	body, err := p.artifacts.Render(title, result.Text)
	if err != nil {
		return domain.DiffArtifact{}, asKind(domain.ErrRender, err, "render artifact for %s", entry.GUID)
	}

	return domain.DiffArtifact{
		Filename:    domain.ArtifactFilename(entry.GUID),
		ContentType: domain.ArtifactContentType,
		Body:        body,
	}, nil
}

func (p *DiffPipeline) render(ctx context.Context, docURL string) (string, error) {
	rctx, cancel := withTimeout(ctx, p.renderTimeout)
	defer cancel()

	text, err := p.renderer.RenderToText(rctx, docURL)
	if err != nil {
		return "", asKind(domain.ErrRender, err, "render %s", docURL)
	}
	return text, nil
}

// writeBuffer stores text under a fresh random name so concurrent runs never share a file.
func (p *DiffPipeline) writeBuffer(text string) (string, error) {
	path := filepath.Join(p.scratchDir, uuid.NewString()+".txt")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: create scratch buffer: %w", domain.ErrDiffTool, err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		p.release(path)
		return "", fmt.Errorf("%w: write scratch buffer: %w", domain.ErrDiffTool, err)
	}
	if err := f.Close(); err != nil {
		p.release(path)
		return "", fmt.Errorf("%w: close scratch buffer: %w", domain.ErrDiffTool, err)
	}
	return path, nil
}

func (p *DiffPipeline) release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("remove scratch buffer", "path", path, "error", err)
	}
}
