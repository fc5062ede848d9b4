package usecase

import (
	"context"
	"path"
	"time"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// MinReferenceTTL is the shortest validity granted to a published artifact reference.
const MinReferenceTTL = 7 * 24 * time.Hour

const publicReadACL = "public-read"

// PublisherOptions controls where and how artifacts are stored.
type PublisherOptions struct {
	Prefix string
	ACL    string
	TTL    time.Duration
}

// ArtifactPublisher persists rendered diffs and returns a retrievable reference.
type ArtifactPublisher struct {
	blobs  ports.BlobStore
	prefix string
	acl    string
	ttl    time.Duration
}

// NewArtifactPublisher wraps a blob store. TTLs under a week are raised to MinReferenceTTL.
func NewArtifactPublisher(blobs ports.BlobStore, opts PublisherOptions) *ArtifactPublisher {
	ttl := opts.TTL
	if ttl < MinReferenceTTL {
		ttl = MinReferenceTTL
	}
	return &ArtifactPublisher{
		blobs:  blobs,
		prefix: opts.Prefix,
		acl:    opts.ACL,
		ttl:    ttl,
	}
}

// Publish uploads the artifact under its guid-derived key, replacing any earlier upload.
func (p *ArtifactPublisher) Publish(ctx context.Context, artifact domain.DiffArtifact) (string, error) {
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = domain.ArtifactContentType
	}

	key := p.key(artifact.Filename)
	handle, err := p.blobs.Put(ctx, key, artifact.Body, ports.PutOptions{ACL: p.acl, ContentType: contentType})
	if err != nil {
		return "", asKind(domain.ErrStorage, err, "put %s", key)
	}

	ref, err := p.blobs.SignedURL(ctx, handle, p.ttl)
	if err != nil {
		return "", asKind(domain.ErrStorage, err, "sign %s", key)
	}
	return ref, nil
}

// PublishStaticAssets uploads the stylesheet and script artifacts link to.
// They are always world-readable since artifacts reference them relatively.
func (p *ArtifactPublisher) PublishStaticAssets(ctx context.Context, assets []domain.StaticAsset) error {
	for _, asset := range assets {
		key := p.key(asset.Path)
		if _, err := p.blobs.Put(ctx, key, asset.Body, ports.PutOptions{ACL: publicReadACL, ContentType: asset.ContentType}); err != nil {
			return asKind(domain.ErrStorage, err, "put asset %s", key)
		}
	}
	return nil
}

func (p *ArtifactPublisher) key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}
