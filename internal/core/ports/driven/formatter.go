package driven

// ArtifactInfo is what can be recovered from a destination document
// archive.
type ArtifactInfo struct {
	// PageCount is the page count recorded by the device.
	PageCount int

	// Publisher is the publisher field of the embedded EPUB.
	Publisher string
}

// DocumentFormatter rewrites and inspects converted documents.
type DocumentFormatter interface {
	// Format rewrites the EPUB at path in place: sets the display title,
	// strips template resources and reduces the reading order to the
	// main content resource.
	Format(path, title string) error

	// ContentText returns the main content resource of the EPUB at path.
	ContentText(path string) (string, error)

	// Inspect reads a destination document archive.
	Inspect(path string) (*ArtifactInfo, error)
}
