package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

const dcNamespace = "http://purl.org/dc/elements/1.1/"

// MainContent is the main content resource, relative to the package
// document.
const MainContent = "content/s1.xhtml"

// unwantedResources are template resources added by the converter,
// relative to the package document.
var unwantedResources = []string{
	"cover.xhtml",
	"images/cover.png",
	"content/s2.xhtml",
	"content/toc.xhtml",
	"toc.ncx",
}

type manifestItem struct {
	ID   string `xml:"id,attr"`
	Href string `xml:"href,attr"`
}

type packageDocument struct {
	Publishers []string       `xml:"metadata>publisher"`
	Items      []manifestItem `xml:"manifest>item"`
}

func parsePackage(data []byte) (*packageDocument, error) {
	var pkg packageDocument
	if err := newDecoder(data).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("parse package document: %w", err)
	}
	return &pkg, nil
}

func (p *packageDocument) idOf(href string) (string, bool) {
	for _, it := range p.Items {
		if path.Clean(it.Href) == href {
			return it.ID, true
		}
	}
	return "", false
}

// rewrite is the result of rewriting a package document.
type rewrite struct {
	opf []byte
	// removed holds the removed manifest hrefs.
	removed map[string]bool
}

// rewritePackage applies the formatting rules to a package document.
func rewritePackage(data []byte, title string) (*rewrite, error) {
	pkg, err := parsePackage(data)
	if err != nil {
		return nil, err
	}
	mainID, ok := pkg.idOf(MainContent)
	if !ok {
		return nil, fmt.Errorf("%w: manifest has no %s", domain.ErrInvalidContent, MainContent)
	}

	unwanted := make(map[string]bool, len(unwantedResources))
	for _, href := range unwantedResources {
		unwanted[href] = true
	}

	r := &opfRewriter{
		title:      title,
		mainID:     mainID,
		unwanted:   unwanted,
		removed:    map[string]bool{},
		removedIDs: map[string]bool{},
		dcPrefix:   "dc",
	}
	out, err := r.run(data)
	if err != nil {
		return nil, err
	}
	return &rewrite{opf: out, removed: r.removed}, nil
}

type opfRewriter struct {
	title    string
	mainID   string
	unwanted map[string]bool

	removed    map[string]bool
	removedIDs map[string]bool

	dcPrefix     string
	dcDeclared   bool
	titleWritten bool
	coverWritten bool
	stack        []string
	skipDepth    int
	replaceDepth int
	out          tokenWriter
}

func (r *opfRewriter) parent() string {
	if len(r.stack) == 0 {
		return ""
	}
	return r.stack[len(r.stack)-1]
}

func (r *opfRewriter) run(data []byte) ([]byte, error) {
	d := newDecoder(data)
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse package document: %w", err)
		}
		r.handle(xml.CopyToken(tok))
	}
	return r.out.bytes(), nil
}

func (r *opfRewriter) handle(tok xml.Token) {
	switch t := tok.(type) {
	case xml.StartElement:
		r.start(t)
	case xml.EndElement:
		r.end(t)
	default:
		if r.skipDepth > 0 || r.replaceDepth > 0 {
			return
		}
		r.out.write(tok)
	}
}

func (r *opfRewriter) start(se xml.StartElement) {
	depth := len(r.stack) + 1
	parent := r.parent()
	r.stack = append(r.stack, se.Name.Local)
	if r.skipDepth > 0 || r.replaceDepth > 0 {
		return
	}

	switch {
	case se.Name.Local == "package" || se.Name.Local == "metadata":
		r.notePrefixes(se)

	case parent == "package" && se.Name.Local == "guide":
		r.skipDepth = depth
		return

	case parent == "manifest" && se.Name.Local == "item":
		href, _ := attr(se, "href")
		href = path.Clean(href)
		if r.unwanted[href] {
			r.removed[href] = true
			if id, ok := attr(se, "id"); ok {
				r.removedIDs[id] = true
			}
			r.skipDepth = depth
			return
		}

	case se.Name.Local == "spine":
		if toc, ok := attr(se, "toc"); ok && r.removedIDs[toc] {
			removeAttr(&se, "toc")
		}

	case parent == "spine" && se.Name.Local == "itemref":
		if idref, _ := attr(se, "idref"); idref != r.mainID {
			r.skipDepth = depth
			return
		}

	case parent == "metadata" && se.Name.Local == "title":
		if r.titleWritten {
			r.skipDepth = depth
			return
		}
		r.titleWritten = true
		r.out.write(se)
		r.out.write(xml.CharData(r.title))
		r.replaceDepth = depth
		return

	case parent == "metadata" && se.Name.Local == "meta":
		if name, _ := attr(se, "name"); name == "cover" {
			if r.coverWritten {
				r.skipDepth = depth
				return
			}
			setAttr(&se, "content", r.mainID)
			r.coverWritten = true
		}
	}
	r.out.write(se)
}

func (r *opfRewriter) end(ee xml.EndElement) {
	depth := len(r.stack)
	if depth > 0 {
		r.stack = r.stack[:depth-1]
	}

	switch {
	case r.skipDepth > 0:
		if depth == r.skipDepth {
			r.skipDepth = 0
		}
		return
	case r.replaceDepth > 0:
		if depth != r.replaceDepth {
			return
		}
		r.replaceDepth = 0
	case ee.Name.Local == "metadata":
		r.completeMetadata()
	}
	r.out.write(ee)
}

// completeMetadata adds the title and cover entries the document lacked.
func (r *opfRewriter) completeMetadata() {
	if !r.titleWritten {
		start := xml.StartElement{Name: xml.Name{Space: r.dcPrefix, Local: "title"}}
		if !r.dcDeclared {
			start.Attr = []xml.Attr{{Name: xml.Name{Space: "xmlns", Local: r.dcPrefix}, Value: dcNamespace}}
		}
		r.out.write(start)
		r.out.write(xml.CharData(r.title))
		r.out.write(start.End())
		r.titleWritten = true
	}
	if !r.coverWritten {
		meta := xml.StartElement{Name: xml.Name{Local: "meta"}, Attr: []xml.Attr{
			{Name: xml.Name{Local: "name"}, Value: "cover"},
			{Name: xml.Name{Local: "content"}, Value: r.mainID},
		}}
		r.out.write(meta)
		r.out.write(meta.End())
		r.coverWritten = true
	}
}

// notePrefixes records the prefix bound to the Dublin Core namespace.
func (r *opfRewriter) notePrefixes(se xml.StartElement) {
	for _, a := range se.Attr {
		if a.Name.Space == "xmlns" && a.Value == dcNamespace {
			r.dcPrefix = a.Name.Local
			r.dcDeclared = true
		}
	}
}
