// Package mets reads the descriptive metadata and file locations that DSpace
// exposes as METS documents with embedded DIM fields.
package mets

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
)

const (
	NamespaceMETS = "http://www.loc.gov/METS/"
	NamespaceDIM  = "http://www.dspace.org/xmlns/dspace/dim"
)

// Metadata is the subset of a METS document used for training data.
type Metadata struct {
	Title    string
	Abstract string
	Subjects []string
	Authors  []string
	Advisors []string
	Issued   string

	// FileURLs are the FLocat hrefs of the first file group, usually the
	// ORIGINAL bundle. They are relative to the repository host.
	FileURLs []string
}

// FirstFileURL returns the first file location or "".
func (m Metadata) FirstFileURL() string {
	if len(m.FileURLs) == 0 {
		return ""
	}
	return m.FileURLs[0]
}

// Apply copies the bibliographic fields onto rec.
func (m Metadata) Apply(rec *corpus.Record) {
	rec.Title = m.Title
	rec.Abstract = m.Abstract
	rec.Subjects = m.Subjects
	rec.Authors = m.Authors
	rec.Advisors = m.Advisors
	rec.Issued = m.Issued
}

// ParseFile parses the METS document at path. A missing file returns empty
// metadata and an error wrapping os.ErrNotExist.
func ParseFile(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a METS document. It is lenient: when the document is malformed
// the fields read before the error are returned together with the error, and
// every other field keeps its zero value.
func Parse(r io.Reader) (Metadata, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose

	p := &parser{}
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p.meta, fmt.Errorf("failed to parse METS document: %w", err)
		}
		if err := p.handle(decoder, tok); err != nil {
			return p.meta, fmt.Errorf("failed to parse METS document: %w", err)
		}
	}
	return p.meta, nil
}

type parser struct {
	meta Metadata

	inFileSec   bool
	fileGroups  int
	hasTitle    bool
	hasAbstract bool
	hasIssued   bool
}

func (p *parser) handle(decoder *xml.Decoder, tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		switch {
		case t.Name.Local == "field" && isDIM(t.Name.Space):
			value, err := readText(decoder)
			if err != nil {
				return err
			}
			p.field(attr(t, "element"), attr(t, "qualifier"), value)
		case t.Name.Local == "fileSec":
			p.inFileSec = true
		case t.Name.Local == "fileGrp" && p.inFileSec:
			p.fileGroups++
		case t.Name.Local == "FLocat" && p.inFileSec && p.fileGroups == 1:
			if href := attr(t, "href"); href != "" {
				p.meta.FileURLs = append(p.meta.FileURLs, href)
			}
		}
	case xml.EndElement:
		if t.Name.Local == "fileSec" {
			p.inFileSec = false
		}
	}
	return nil
}

func (p *parser) field(element, qualifier, value string) {
	switch element {
	case "title":
		if !p.hasTitle {
			p.meta.Title = value
			p.hasTitle = true
		}
	case "description":
		if !p.hasAbstract {
			p.meta.Abstract = value
			p.hasAbstract = true
		}
	case "subject":
		p.meta.Subjects = append(p.meta.Subjects, value)
	case "contributor":
		switch qualifier {
		case "author":
			p.meta.Authors = append(p.meta.Authors, value)
		case "advisor":
			p.meta.Advisors = append(p.meta.Advisors, value)
		}
	case "date":
		if qualifier == "issued" && !p.hasIssued {
			p.meta.Issued = value
			p.hasIssued = true
		}
	}
}

// isDIM accepts the DIM namespace and, for documents that lost their
// namespace declarations, the bare "dim" prefix.
func isDIM(space string) bool {
	return space == NamespaceDIM || space == "dim"
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// readText returns the character data up to the end of the current element.
func readText(decoder *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return strings.TrimSpace(sb.String()), err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
