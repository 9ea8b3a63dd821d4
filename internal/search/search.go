package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultDocument ResultType = "document"
	ResultCase     ResultType = "case"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type       ResultType `json:"type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	DocumentID string     `json:"documentId"`
	Status     string     `json:"status"`
}

// Query describes a search request. Exactly one of OwnerID and LawyerID is
// set: regular users see their own documents, lawyers see assigned cases
// and the documents behind them.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	OwnerID    string
	LawyerID   string
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// DocumentRecord is the data we index for a document.
type DocumentRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	Status   string `json:"status"`
	OwnerID  string `json:"ownerId"`
}

// CaseRecord is the data we index for an escalated case.
type CaseRecord struct {
	ID              string   `json:"id"`
	DocumentID      string   `json:"documentId"`
	DocumentTitle   string   `json:"documentTitle"`
	RequesterName   string   `json:"requesterName"`
	Status          string   `json:"status"`
	AssignedLawyers []string `json:"assignedLawyers"`
}
