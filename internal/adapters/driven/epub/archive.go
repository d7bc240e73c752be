package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

const (
	mimetypeEntry  = "mimetype"
	epubMimetype   = "application/epub+zip"
	containerEntry = "META-INF/container.xml"
	defaultOPF     = "OEBPS/content.opf"
)

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// packagePath locates the package document through the container file.
func packagePath(r *zip.Reader) string {
	f := findEntry(r, containerEntry)
	if f == nil {
		return defaultOPF
	}
	data, err := readEntry(f)
	if err != nil {
		return defaultOPF
	}
	var c container
	if err := xml.Unmarshal(data, &c); err != nil || len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return defaultOPF
	}
	return path.Clean(c.Rootfiles[0].FullPath)
}

func findEntry(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// readEntry reads a zip entry. A checksum mismatch is tolerated: the
// device sometimes stores books whose CRC no longer matches but whose
// content is intact.
func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil && !errors.Is(err, zip.ErrChecksum) {
		return nil, err
	}
	return data, nil
}

// entry is a file to be written to a new archive.
type entry struct {
	name string
	data []byte
}

// writeArchive replaces the archive at dst atomically. The mimetype entry
// is written first and stored uncompressed.
func writeArchive(dst string, mimetype []byte, entries []entry) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".epub-*")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: mimetypeEntry, Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := w.Write(mimetype); err != nil {
		return err
	}
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate})
		if err != nil {
			return err
		}
		if _, err := w.Write(e.data); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
