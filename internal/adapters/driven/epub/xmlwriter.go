package epub

import (
	"bytes"
	"encoding/xml"
	"strings"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// tokenWriter serialises raw tokens with their original prefixes.
// xml.Encoder rewrites prefixed names into namespace declarations, which
// breaks OPF documents.
type tokenWriter struct {
	buf     bytes.Buffer
	pending *xml.StartElement
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func (w *tokenWriter) flush(selfClose bool) {
	if w.pending == nil {
		return
	}
	w.buf.WriteByte('<')
	w.buf.WriteString(qualified(w.pending.Name))
	for _, a := range w.pending.Attr {
		w.buf.WriteByte(' ')
		w.buf.WriteString(qualified(a.Name))
		w.buf.WriteString(`="`)
		w.buf.WriteString(attrEscaper.Replace(a.Value))
		w.buf.WriteByte('"')
	}
	if selfClose {
		w.buf.WriteString("/>")
	} else {
		w.buf.WriteByte('>')
	}
	w.pending = nil
}

func (w *tokenWriter) write(tok xml.Token) {
	if end, ok := tok.(xml.EndElement); ok && w.pending != nil && w.pending.Name == end.Name {
		w.flush(true)
		return
	}
	w.flush(false)

	switch t := tok.(type) {
	case xml.StartElement:
		start := t.Copy()
		w.pending = &start
	case xml.EndElement:
		w.buf.WriteString("</")
		w.buf.WriteString(qualified(t.Name))
		w.buf.WriteByte('>')
	case xml.CharData:
		w.buf.WriteString(textEscaper.Replace(string(t)))
	case xml.Comment:
		w.buf.WriteString("<!--")
		w.buf.Write(t)
		w.buf.WriteString("-->")
	case xml.ProcInst:
		w.buf.WriteString("<?")
		w.buf.WriteString(t.Target)
		if len(t.Inst) > 0 {
			w.buf.WriteByte(' ')
			w.buf.Write(t.Inst)
		}
		w.buf.WriteString("?>")
	case xml.Directive:
		w.buf.WriteString("<!")
		w.buf.Write(t)
		w.buf.WriteByte('>')
	}
}

func (w *tokenWriter) bytes() []byte {
	w.flush(false)
	return w.buf.Bytes()
}

func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	return d
}

func attr(se xml.StartElement, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

func setAttr(se *xml.StartElement, local, value string) {
	for i, a := range se.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			se.Attr[i].Value = value
			return
		}
	}
	se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}

func removeAttr(se *xml.StartElement, local string) {
	attrs := se.Attr[:0]
	for _, a := range se.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			continue
		}
		attrs = append(attrs, a)
	}
	se.Attr = attrs
}
