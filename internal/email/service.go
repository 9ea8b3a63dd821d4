// Package email provides email sending capabilities via SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
}

// NewService creates a new email service
func NewService(config Config) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)

	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendHTMLEmail sends an HTML email with a plain-text fallback part.
func (s *Service) SendHTMLEmail(to []string, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	boundary := "boundary-lexrelay"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "Please view this email in an HTML-capable email client.\r\n")
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg.Bytes())
}

// CaseAssignedData holds data for the case-assigned notification.
type CaseAssignedData struct {
	AppName       string
	DocumentTitle string
	RequesterName string
	CaseID        string
}

// SendCaseAssigned notifies the assigned lawyers that a document was
// escalated to them.
func (s *Service) SendCaseAssigned(to []string, documentTitle, requesterName, caseID string) error {
	data := CaseAssignedData{
		AppName:       "LexRelay",
		DocumentTitle: documentTitle,
		RequesterName: requesterName,
		CaseID:        caseID,
	}

	subject := fmt.Sprintf("New case: %s", documentTitle)
	html, err := renderTemplate(caseAssignedTemplate, data)
	if err != nil {
		return fmt.Errorf("render case-assigned template: %w", err)
	}

	return s.SendHTMLEmail(to, subject, html)
}

// CaseResolvedData holds data for the case-resolved notification.
type CaseResolvedData struct {
	AppName       string
	DocumentTitle string
	LawyerName    string
}

// SendCaseResolved notifies the document owner that a reviewer resolved
// their case.
func (s *Service) SendCaseResolved(to, documentTitle, lawyerName string) error {
	data := CaseResolvedData{
		AppName:       "LexRelay",
		DocumentTitle: documentTitle,
		LawyerName:    lawyerName,
	}

	subject := fmt.Sprintf("Your document has been reviewed: %s", documentTitle)
	html, err := renderTemplate(caseResolvedTemplate, data)
	if err != nil {
		return fmt.Errorf("render case-resolved template: %w", err)
	}

	return s.SendHTMLEmail([]string{to}, subject, html)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const caseAssignedTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New case on {{.AppName}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .case { background: #f5f7fa; padding: 12px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>A document needs review</h2>

    <p>{{.RequesterName}} escalated a document for legal review:</p>

    <div class="case">
        <strong>{{.DocumentTitle}}</strong><br>
        Case {{.CaseID}}
    </div>

    <p>Sign in to your cases dashboard to accept it. The first reviewer to accept takes the case.</p>

    <div class="footer">
        <p>You received this email because you are registered as a reviewer on {{.AppName}}.</p>
    </div>
</body>
</html>`

const caseResolvedTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Document reviewed on {{.AppName}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>Your document has been reviewed</h2>

    <p>{{.LawyerName}} completed the review of <strong>{{.DocumentTitle}}</strong>.</p>

    <p>Sign in to see the revised text and reviewer comments.</p>

    <div class="footer">
        <p>You received this email because you requested a review on {{.AppName}}.</p>
    </div>
</body>
</html>`
