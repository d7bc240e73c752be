// Package epub rewrites converted EPUB books and inspects reMarkable
// document archives.
//
// A converted book is trimmed to its main content before upload: the
// title is replaced, template resources (cover, references, table of
// contents, NCX) are dropped from the manifest and the archive, the spine
// is reduced to the main content item and the guide is removed.
//
// A document archive (.rmdoc) is a zip of "<hash>.*" entries. The
// "<hash>.content" JSON holds the device page count and "<hash>.epub" is
// the book as uploaded.
package epub
