package store

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Analysis is the structured record produced by the analysis adapter.
// Succeeded distinguishes a clean run from the degraded fallback; the
// three provider fields are always populated either way.
type Analysis struct {
	Summary         []string `json:"summary"`
	Flags           []string `json:"flags"`
	SuggestedClause string   `json:"suggested_clause"`
	Succeeded       bool     `json:"succeeded"`
}

type Document struct {
	ID         string
	OwnerID    string
	OwnerEmail string
	Title      string
	Text       string
	Category   string
	Status     string
	Analysis   Analysis
	Revisions  []Revision
	UploadedAt time.Time
}

// Revision is one reviewer edit appended to a document. The list is
// append-only; only a resolving reviewer writes to it.
type Revision struct {
	RevisedText string    `json:"revised_text"`
	Comments    string    `json:"comments"`
	LawyerName  string    `json:"lawyerName"`
	Date        time.Time `json:"date"`
}

// Escalation links a document to the set of lawyers that were registered
// when it was created. AssignedLawyers is a frozen snapshot, not a live
// query over current lawyers.
type Escalation struct {
	ID              string
	DocumentID      string
	DocumentTitle   string
	RequesterID     string
	RequesterName   string
	RequesterEmail  string
	AssignedLawyers []string
	Status          string
	CreatedAt       time.Time
}

// Document statuses.
const (
	DocStatusPending   = "pending"
	DocStatusAnalyzed  = "analyzed"
	DocStatusEscalated = "escalated"
	DocStatusResolved  = "resolved"
)

// Escalation statuses; the machine is linear with no regression.
const (
	CaseStatusPending  = "pending"
	CaseStatusInReview = "review_in_progress"
	CaseStatusResolved = "resolved"
)
