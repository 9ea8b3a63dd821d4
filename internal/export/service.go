package export

import (
	"fmt"
	"html/template"
)

// Service renders review reports in the requested format.
type Service struct{}

// NewService creates a new export service
func NewService() *Service {
	return &Service{}
}

// Export renders the report to HTML and converts it to the requested format.
func (s *Service) Export(report Report, format Format) (*Result, error) {
	data := TemplateData{
		Title:           report.Title,
		OwnerEmail:      report.OwnerEmail,
		Category:        report.Category,
		Status:          report.Status,
		BodyHTML:        template.HTML(TextToHTML(report.Body)),
		Summary:         report.Summary,
		Flags:           report.Flags,
		SuggestedClause: report.SuggestedClause,
		Revisions:       report.Revisions,
		UploadedAt:      report.UploadedAt,
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch format {
	case FormatPDF:
		return exportPDF(html, report.Title)
	case FormatDOCX:
		return exportDOCX(html, report.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
