package domain

// RemoteDocument is a document as reported by the destination.
type RemoteDocument struct {
	// Name is the visible document name (a sanitised article title).
	Name string `json:"Name"`

	// CurrentPage is the zero-based page the reader is on.
	CurrentPage int `json:"CurrentPage"`
}

// DocumentMetadata combines a RemoteDocument with the values recovered
// from its stored conversion artifact.
type DocumentMetadata struct {
	Document RemoteDocument

	// PageCount is the number of pages reported by the device.
	// Zero means the device has not paginated the document yet.
	PageCount int

	// SourceID is the identifier of the article the document was
	// created from.
	SourceID string
}

// IsRead reports whether the reader has reached the last page.
func (m DocumentMetadata) IsRead() bool {
	return m.PageCount > 0 && m.Document.CurrentPage+1 == m.PageCount
}
