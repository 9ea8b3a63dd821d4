package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
	"safeHTML": SafeHTML,
}).Parse(reportTemplateText))

// SafeHTML is a template function that marks a string as safe HTML
func SafeHTML(s interface{}) template.HTML {
	switch v := s.(type) {
	case string:
		return template.HTML(v)
	case template.HTML:
		return v
	default:
		return template.HTML("")
	}
}

// TemplateData holds data for report template rendering
type TemplateData struct {
	Title           string
	OwnerEmail      string
	Category        string
	Status          string
	BodyHTML        template.HTML
	Summary         []string
	Flags           []string
	SuggestedClause string
	Revisions       []RevisionEntry
	UploadedAt      time.Time
}

// RenderReportHTML renders the report template with provided data
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TextToHTML converts plain document text into paragraph-per-blank-line
// HTML, escaping the content. Single newlines inside a paragraph become
// line breaks.
func TextToHTML(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = template.HTMLEscapeString(line)
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>\n")
	}
	return b.String()
}

const reportTemplateText = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    h2 { margin-top: 2rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .flag { background: #fff3f3; padding: 0.5rem 1rem; margin: 0.5rem 0; border-left: 3px solid #c33; }
    .clause { background: #f3f7ff; padding: 1rem; border-left: 3px solid #36c; }
    .revision { background: #f5f5f5; padding: 1rem; margin: 1rem 0; border-left: 3px solid #333; }
    .revision .who { color: #666; font-size: 0.9em; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Category}} | {{.OwnerEmail}} | {{.Status}} | {{formatDate .UploadedAt "Jan 2, 2006"}}</div>
  <div>{{.BodyHTML | safeHTML}}</div>
  {{if .Summary}}
  <h2>Analysis Summary</h2>
  <ul>{{range .Summary}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{if .Flags}}
  <h2>Flagged Issues</h2>
  {{range .Flags}}<div class="flag">{{.}}</div>{{end}}
  {{end}}
  {{if .SuggestedClause}}
  <h2>Suggested Clause</h2>
  <div class="clause">{{.SuggestedClause}}</div>
  {{end}}
  {{if .Revisions}}
  <h2>Revisions</h2>
  {{range .Revisions}}<div class="revision">
    <div class="who">{{.LawyerName}} | {{formatDate .Date "Jan 2, 2006"}}</div>
    {{if .Comments}}<p>{{.Comments}}</p>{{end}}
    <p>{{.RevisedText}}</p>
  </div>{{end}}
  {{end}}
</body>
</html>`
