package corpus

import (
	"path/filepath"
	"strings"
)

// FileRef is a file downloaded for a record, relative to the files store.
type FileRef struct {
	URL  string `json:"url" parquet:"url"`
	Path string `json:"path" parquet:"path"`
}

// Record is one scraped repository item with its bibliographic metadata and,
// once text extraction has run, the text of its cover page.
type Record struct {
	// Acquisition
	CommunityURL string    `json:"community_url" parquet:"community_url"`
	RecordURL    string    `json:"record_url" parquet:"record_url"`
	MetadataURL  string    `json:"metadata_url" parquet:"metadata_url"`
	FileURL      string    `json:"file_url" parquet:"file_url"`
	Files        []FileRef `json:"files" parquet:"files,list"`
	Breadcrumb   []string  `json:"breadcrumb" parquet:"breadcrumb,list"`

	// Bibliographic metadata
	Title    string   `json:"title" parquet:"title"`
	Abstract string   `json:"abstract" parquet:"abstract"`
	Subjects []string `json:"subjects" parquet:"subjects,list"`
	Authors  []string `json:"authors" parquet:"authors,list"`
	Advisors []string `json:"advisors" parquet:"advisors,list"`
	Issued   string   `json:"issued" parquet:"issued"`

	// Resolved local files
	XMLFile string `json:"xml_file,omitempty" parquet:"xml_file"`
	PDFFile string `json:"pdf_file,omitempty" parquet:"pdf_file"`

	// CoverPageText is nil when no text could be extracted.
	CoverPageText *string `json:"cover_page_text" parquet:"cover_page_text,optional"`
}

// ID returns the record URL, falling back to the metadata URL.
func (r *Record) ID() string {
	if r.RecordURL != "" {
		return r.RecordURL
	}
	return r.MetadataURL
}

// HasCoverPageText reports whether text extraction produced any text.
func (r *Record) HasCoverPageText() bool {
	return r.CoverPageText != nil
}

// NormalizedRecord is a Record after normalization and case folding of every
// textual field. Year and DocumentType are derived from Issued and Breadcrumb.
type NormalizedRecord struct {
	ID            string
	Title         string
	Abstract      string
	Subjects      []string
	Authors       []string
	Advisors      []string
	Issued        string
	Breadcrumb    []string
	CoverPageText string

	// Year is the first four-digit run of Issued, or 0.
	Year int
	// DocumentType is the second-to-last breadcrumb entry, or "" when the
	// breadcrumb is too short.
	DocumentType string
}

// FilePath returns the local path of the first downloaded file whose URL
// contains ext, joined to filesRoot, or "".
func (r *Record) FilePath(filesRoot, ext string) string {
	for _, f := range r.Files {
		if f.URL != "" && f.Path != "" && strings.Contains(f.URL, ext) {
			return filepath.Join(filesRoot, f.Path)
		}
	}
	return ""
}

// ResolveFiles sets XMLFile and PDFFile from the downloaded files.
func (r *Record) ResolveFiles(filesRoot string) {
	r.XMLFile = r.FilePath(filesRoot, ".xml")
	r.PDFFile = r.FilePath(filesRoot, ".pdf")
}
