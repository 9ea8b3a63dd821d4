// Package export renders review reports as PDF or DOCX.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Report is the content of a review report. The caller assembles it from
// a document and its revisions; this package only renders.
type Report struct {
	Title           string
	OwnerEmail      string
	Category        string
	Status          string
	Body            string
	Summary         []string
	Flags           []string
	SuggestedClause string
	Revisions       []RevisionEntry
	UploadedAt      time.Time
}

// RevisionEntry is one reviewer edit included in the report.
type RevisionEntry struct {
	LawyerName  string
	Comments    string
	RevisedText string
	Date        time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
