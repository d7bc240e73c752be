package epub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// Ensure Formatter implements the interface.
var _ driven.DocumentFormatter = (*Formatter)(nil)

// Formatter implements driven.DocumentFormatter.
type Formatter struct{}

// NewFormatter creates a Formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format rewrites the book at path in place.
func (f *Formatter) Format(filePath, title string) error {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", domain.ErrInvalidContent, filePath, err)
	}
	defer r.Close()

	opfPath := packagePath(&r.Reader)
	opfFile := findEntry(&r.Reader, opfPath)
	if opfFile == nil {
		return fmt.Errorf("%w: no package document at %s", domain.ErrInvalidContent, opfPath)
	}
	data, err := readEntry(opfFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", opfPath, err)
	}
	rw, err := rewritePackage(data, title)
	if err != nil {
		return err
	}

	opfDir := path.Dir(opfPath)
	drop := make(map[string]bool, len(unwantedResources))
	for _, href := range unwantedResources {
		drop[path.Join(opfDir, href)] = true
	}

	mimetype := []byte(epubMimetype)
	var entries []entry
	for _, zf := range r.File {
		switch {
		case zf.Name == mimetypeEntry:
			if data, err := readEntry(zf); err == nil && len(bytes.TrimSpace(data)) > 0 {
				mimetype = bytes.TrimSpace(data)
			}
			continue
		case zf.Name == opfPath:
			entries = append(entries, entry{name: zf.Name, data: rw.opf})
			continue
		case drop[zf.Name], strings.HasSuffix(zf.Name, "/"):
			continue
		}
		data, err := readEntry(zf)
		if err != nil {
			return fmt.Errorf("read %s: %w", zf.Name, err)
		}
		entries = append(entries, entry{name: zf.Name, data: data})
	}
	// Close before the file is replaced.
	_ = r.Close()

	if err := writeArchive(filePath, mimetype, entries); err != nil {
		return fmt.Errorf("write %s: %w", filePath, err)
	}
	logger.Debug("Formatted '%s': removed %d template resource(s).", title, len(rw.removed))
	return nil
}

// ContentText returns the main content resource as text.
func (f *Formatter) ContentText(filePath string) (string, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", domain.ErrInvalidContent, filePath, err)
	}
	defer r.Close()

	name := path.Join(path.Dir(packagePath(&r.Reader)), MainContent)
	zf := findEntry(&r.Reader, name)
	if zf == nil {
		return "", fmt.Errorf("%w: %s missing", domain.ErrInvalidContent, name)
	}
	data, err := readEntry(zf)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// Inspect reads the page count and the book's publisher from a document
// archive.
func (f *Formatter) Inspect(filePath string) (*driven.ArtifactInfo, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrCorruptRemoteState, filePath, err)
	}
	defer r.Close()

	if len(r.File) == 0 {
		return nil, fmt.Errorf("%w: empty archive", domain.ErrCorruptRemoteState)
	}
	hash := documentHash(r.File[0].Name)

	content := findEntry(&r.Reader, hash+".content")
	if content == nil {
		return nil, fmt.Errorf("%w: %s.content missing", domain.ErrCorruptRemoteState, hash)
	}
	data, err := readEntry(content)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrCorruptRemoteState, content.Name, err)
	}
	var meta struct {
		PageCount int `json:"pageCount"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrCorruptRemoteState, content.Name, err)
	}

	// Documents the device could not read as EPUB are converted to PDF
	// and have no book entry.
	book := findEntry(&r.Reader, hash+".epub")
	if book == nil {
		return nil, fmt.Errorf("%w: %s.epub missing", domain.ErrCorruptRemoteState, hash)
	}
	publisher, err := bookPublisher(book)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptRemoteState, err)
	}
	return &driven.ArtifactInfo{PageCount: meta.PageCount, Publisher: publisher}, nil
}

// documentHash is the shared prefix of the archive entries.
func documentHash(name string) string {
	name, _, _ = strings.Cut(name, "/")
	name, _, _ = strings.Cut(name, ".")
	return name
}

func bookPublisher(book *zip.File) (string, error) {
	data, err := readEntry(book)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", book.Name, err)
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", book.Name, err)
	}
	opfPath := packagePath(r)
	opf := findEntry(r, opfPath)
	if opf == nil {
		return "", fmt.Errorf("%s has no package document", book.Name)
	}
	opfData, err := readEntry(opf)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", opfPath, err)
	}
	pkg, err := parsePackage(opfData)
	if err != nil {
		return "", err
	}
	if len(pkg.Publishers) == 0 {
		return "", fmt.Errorf("%s has no publisher", book.Name)
	}
	return pkg.Publishers[0], nil
}
