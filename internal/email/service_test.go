package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "test@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestRenderCaseAssignedTemplate(t *testing.T) {
	data := CaseAssignedData{
		AppName:       "LexRelay",
		DocumentTitle: "Mutual NDA",
		RequesterName: "Avery Client",
		CaseID:        "esc_0123",
	}

	html, err := renderTemplate(caseAssignedTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "LexRelay") {
		t.Error("template should contain app name")
	}
	if !strings.Contains(html, "Mutual NDA") {
		t.Error("template should contain document title")
	}
	if !strings.Contains(html, "Avery Client") {
		t.Error("template should contain requester name")
	}
	if !strings.Contains(html, "esc_0123") {
		t.Error("template should contain case ID")
	}
}

func TestRenderCaseResolvedTemplate(t *testing.T) {
	data := CaseResolvedData{
		AppName:       "LexRelay",
		DocumentTitle: "Service Agreement",
		LawyerName:    "Dana Counsel",
	}

	html, err := renderTemplate(caseResolvedTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Service Agreement") {
		t.Error("template should contain document title")
	}
	if !strings.Contains(html, "Dana Counsel") {
		t.Error("template should contain lawyer name")
	}
}

func TestSendHTMLEmailUnconfigured(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendHTMLEmail([]string{"to@example.com"}, "subject", "<p>hi</p>"); err == nil {
		t.Error("expected error when email is not configured")
	}
}
