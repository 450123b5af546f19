package nzb

import (
	"encoding/xml"
	"fmt"
	"io"
)

const (
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
	nzbDoctype     = `<!DOCTYPE nzb PUBLIC "-//newzBin//DTD NZB 1.1//EN" "http://www.newzbin.com/DTD/nzb/nzb-1.1.dtd">`
	nzbNamespace   = "http://www.newzbin.com/DTD/2003/nzb"
)

// Write renders doc as a bit-exact NZB 1.1 XML document to w.
// encoding/xml cannot emit a DOCTYPE declaration, so the document is
// written by hand with xml.EscapeText guarding every text/attribute
// value.
func Write(w io.Writer, doc Document) error {
	if _, err := io.WriteString(w, xmlDeclaration+"\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, nzbDoctype+"\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "<nzb xmlns=\"%s\">\n", nzbNamespace); err != nil {
		return err
	}

	for _, f := range doc.Files {
		if err := writeFile(w, f); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</nzb>\n")
	return err
}

func writeFile(w io.Writer, f File) error {
	if _, err := io.WriteString(w, "  <file poster=\""); err != nil {
		return err
	}
	if err := escapeAttr(w, f.Poster); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\" date=\"%d\" subject=\"", f.Date); err != nil {
		return err
	}
	if err := escapeAttr(w, f.Subject); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\">\n"); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "    <groups>\n"); err != nil {
		return err
	}
	for _, g := range f.Groups {
		if _, err := io.WriteString(w, "      <group>"); err != nil {
			return err
		}
		if err := escapeText(w, g); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "</group>\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "    </groups>\n"); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "    <segments>\n"); err != nil {
		return err
	}
	for _, s := range f.Segments {
		if _, err := fmt.Fprintf(w, "      <segment bytes=\"%d\" number=\"%d\">", s.Bytes, s.Number); err != nil {
			return err
		}
		if err := escapeText(w, stripAngleBrackets(s.MessageID)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "</segment>\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "    </segments>\n"); err != nil {
		return err
	}

	_, err := io.WriteString(w, "  </file>\n")
	return err
}

func escapeAttr(w io.Writer, s string) error {
	return xml.EscapeText(w, []byte(s))
}

func escapeText(w io.Writer, s string) error {
	return xml.EscapeText(w, []byte(s))
}

// stripAngleBrackets removes the <> wrapper NZB segment bodies don't
// carry, since the message-id already appears bare between <segment>
// tags by convention.
func stripAngleBrackets(id string) string {
	if len(id) >= 2 && id[0] == '<' && id[len(id)-1] == '>' {
		return id[1 : len(id)-1]
	}
	return id
}
