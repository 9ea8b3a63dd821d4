// Package analysis wraps the Gemini text-generation call that turns raw
// document text into a structured legal analysis. Analyze never fails
// outward: provider and transport errors degrade into a fallback Result.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is the structured analysis record. The three provider fields are
// always populated; Succeeded separates a clean provider run from the
// degraded fallback, which is otherwise only visible in the message text
// and the "N/A" clause sentinel.
type Result struct {
	Summary         []string `json:"summary"`
	Flags           []string `json:"flags"`
	SuggestedClause string   `json:"suggested_clause"`
	Succeeded       bool     `json:"succeeded"`
}

const fallbackClause = "N/A"

type geminiRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Client calls the Gemini generateContent REST endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

const promptTemplate = `You are an expert AI Legal Assistant. Analyze the following legal document text.

Return the output in strictly valid JSON format with this structure:
{
  "summary": ["Point 1", "Point 2"],
  "flags": ["Risk 1", "Risk 2"],
  "suggested_clause": "Revised clause suggestion..."
}

Do not use Markdown fences. Just return raw JSON.

DOCUMENT TEXT:
%q`

// Analyze submits text for analysis and returns a populated Result in every
// case. Callers cannot distinguish "no risks found" from "analysis did not
// run" except through the flag text and the clause sentinel.
func (c *Client) Analyze(ctx context.Context, text string) Result {
	if c.apiKey == "" {
		return genericFallback(fmt.Errorf("analysis provider not configured"))
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, text)}}}},
	})
	if err != nil {
		return genericFallback(err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return genericFallback(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return genericFallback(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return rateLimitFallback()
	}
	if resp.StatusCode != http.StatusOK {
		return genericFallback(fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return genericFallback(err)
	}

	var decoded geminiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return genericFallback(err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return genericFallback(fmt.Errorf("provider returned no candidates"))
	}

	payload := stripFences(decoded.Candidates[0].Content.Parts[0].Text)

	var parsed struct {
		Summary         []string `json:"summary"`
		Flags           []string `json:"flags"`
		SuggestedClause string   `json:"suggested_clause"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return genericFallback(fmt.Errorf("parse analysis payload: %w", err))
	}

	return Result{
		Summary:         nonNil(parsed.Summary),
		Flags:           nonNil(parsed.Flags),
		SuggestedClause: parsed.SuggestedClause,
		Succeeded:       true,
	}
}

// stripFences removes the Markdown code fences the provider sometimes wraps
// around its JSON despite being told not to.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func rateLimitFallback() Result {
	return Result{
		Summary:         []string{"System busy", "The analysis provider rate limit was reached."},
		Flags:           []string{"Please wait 30 seconds and try again."},
		SuggestedClause: fallbackClause,
	}
}

func genericFallback(err error) Result {
	return Result{
		Summary:         []string{"Analysis failed", "Could not reach the analysis provider."},
		Flags:           []string{"Error: " + err.Error()},
		SuggestedClause: fallbackClause,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
