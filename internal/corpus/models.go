package corpus

import (
	"strconv"
	"strings"
)

// DocumentRecord represents one manifest record from the corpus export.
// The manifest ships as documents.jsonl or documents.parquet with one
// record per digitized document.
type DocumentRecord struct {
	// Core identifiers
	Identifier    string `json:"identifier" parquet:"identifier"` // Primary key
	Subcollection string `json:"subcollection" parquet:"subcollection"`

	// Descriptive metadata
	Title      string `json:"title" parquet:"title"`
	Year       string `json:"year" parquet:"year"`
	Language   string `json:"language" parquet:"language"` // ISO 639-1 code
	Collection string `json:"collection" parquet:"collection"`
}

// Page is one OCR page from an ocr/<subcollection>/<identifier>.json file.
type Page struct {
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Document is a manifest record joined with its OCR pages.
type Document struct {
	DocumentRecord
	Pages []Page
}

// FullText joins the page texts with blank lines, in page order.
func (d *Document) FullText() string {
	texts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n\n")
}

// PageCount reads the exporter's pdf-total-pages attribute from the first
// page when present, falling back to the page array length.
func (d *Document) PageCount() int {
	if len(d.Pages) > 0 {
		if v, ok := d.Pages[0].Metadata["pdf-total-pages"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return len(d.Pages)
}

// DocType infers the document genre from the identifier prefix. Newspaper
// identifiers carry a masthead prefix; government files come from school
// or treaty record groups; everything else is treated as a book.
func (r *DocumentRecord) DocType() string {
	id := strings.ToLower(r.Identifier)
	for _, prefix := range []string{"ptr_", "bdm_", "brm_", "lmt_", "mja_", "mtm_"} {
		if strings.HasPrefix(id, prefix) {
			return "newspaper"
		}
	}
	if strings.Contains(id, "school_files") || strings.Contains(id, "rg10") {
		return "government"
	}
	return "book"
}
