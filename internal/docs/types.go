// Package docs scans a repo's markdown documentation for symbol mentions
// and upserts the result into the document table (§4.7 DOCS_SCAN).
package docs

import "time"

// DocType represents the type of documentation file.
type DocType string

const (
	DocTypeMarkdown DocType = "markdown"
	DocTypeADR      DocType = "adr"
)

// DetectionMethod represents how a symbol reference was found in documentation.
type DetectionMethod string

const (
	DetectBacktick  DetectionMethod = "backtick"  // `Symbol.Name`
	DetectDirective DetectionMethod = "directive" // <!-- ckb:symbol Symbol.Name -->
)

// Document represents a scanned documentation file.
type Document struct {
	Path        string    `json:"path"`         // Relative path from repo root
	Type        DocType   `json:"type"`         // markdown, adr
	Title       string    `json:"title"`        // Extracted from first "# " heading; empty if none
	Hash        string    `json:"hash"`         // SHA256 for change detection
	LastIndexed time.Time `json:"last_indexed"` // When last scanned
}

// Mention is a raw symbol mention found during scanning.
type Mention struct {
	RawText string          `json:"raw_text"`
	Line    int             `json:"line"`
	Column  int             `json:"column"`
	Context string          `json:"context"`
	Method  DetectionMethod `json:"method"`
}

// ModuleLink is a module directive found during scanning.
type ModuleLink struct {
	ModuleID string `json:"module_id"`
	Line     int    `json:"line"`
}

// ScanResult holds the result of scanning a document.
type ScanResult struct {
	Doc      Document     `json:"doc"`
	Mentions []Mention    `json:"mentions"`
	Modules  []ModuleLink `json:"modules"`
	Error    error        `json:"-"`
}
