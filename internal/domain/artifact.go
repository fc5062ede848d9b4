package domain

// ArtifactContentType is the content type every diff artifact is stored with.
const ArtifactContentType = "text/html"

const artifactSuffix = ".html"

// DiffResult is the outcome of a successful diff run. Changed is false when the
// engine ran and found nothing to report.
type DiffResult struct {
	Text    string
	Changed bool
}

// NoDifferences is the result of a diff between equivalent documents.
func NoDifferences() DiffResult {
	return DiffResult{}
}

// DiffArtifact is the rendered comparison between an entry and its predecessor.
type DiffArtifact struct {
	Filename           string
	ContentType        string
	Body               []byte
	RetrievalReference string
}

// ArtifactFilename derives the storage name of the artifact produced for guid.
func ArtifactFilename(guid string) string {
	return guid + artifactSuffix
}

// NotificationMessage is composed per dispatch and never persisted.
type NotificationMessage struct {
	Subject    string
	BodyText   string
	Recipients []string
}

// StaticAsset is a file the rendered artifacts reference by relative path and
// that must be deployed next to them.
type StaticAsset struct {
	Path        string
	ContentType string
	Body        []byte
}
