package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across documents and escalations using
// plainto_tsquery and ts_rank, with ts_headline for snippets. Role scoping
// is applied in SQL so a caller never sees rows outside their view.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	// Documents sub-query
	if q.FilterType == "" || q.FilterType == ResultDocument {
		docWhere := "d.fts @@ " + tsQuery
		if q.OwnerID != "" {
			docWhere += fmt.Sprintf(" AND d.owner_id = $%d", argN)
			args = append(args, q.OwnerID)
			argN++
		} else if q.LawyerID != "" {
			docWhere += fmt.Sprintf(` AND EXISTS (
				SELECT 1 FROM escalations e
				WHERE e.document_id = d.id AND e.assigned_lawyers @> to_jsonb($%d::text))`, argN)
			args = append(args, q.LawyerID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'document'::text AS type, d.id, d.title,
				ts_headline('english', coalesce(d.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				d.id AS document_id, d.status,
				ts_rank(d.fts, %s) AS rank
			FROM documents d
			WHERE %s`, tsQuery, tsQuery, docWhere))
	}

	// Cases sub-query, lawyers only
	if (q.FilterType == "" || q.FilterType == ResultCase) && q.LawyerID != "" {
		caseWhere := fmt.Sprintf("e.fts @@ %s AND e.assigned_lawyers @> to_jsonb($%d::text)", tsQuery, argN)
		args = append(args, q.LawyerID)
		argN++
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'case'::text AS type, e.id, e.document_title AS title,
				ts_headline('english', coalesce(e.requester_name, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				e.document_id, e.status,
				ts_rank(e.fts, %s) AS rank
			FROM escalations e
			WHERE %s`, tsQuery, tsQuery, caseWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, document_id, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.DocumentID, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]DocumentRecord, []CaseRecord, error) {
	docRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, body, category, status, owner_id
		FROM documents
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load documents: %w", err)
	}
	defer docRows.Close()

	documents := make([]DocumentRecord, 0)
	for docRows.Next() {
		var d DocumentRecord
		if err := docRows.Scan(&d.ID, &d.Title, &d.Body, &d.Category, &d.Status, &d.OwnerID); err != nil {
			return nil, nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, d)
	}
	if err := docRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate documents: %w", err)
	}

	caseRows, err := p.db.QueryContext(ctx, `
		SELECT id, document_id, document_title, requester_name, status, assigned_lawyers
		FROM escalations
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load cases: %w", err)
	}
	defer caseRows.Close()

	cases := make([]CaseRecord, 0)
	for caseRows.Next() {
		var c CaseRecord
		var lawyersJSON []byte
		if err := caseRows.Scan(&c.ID, &c.DocumentID, &c.DocumentTitle, &c.RequesterName, &c.Status, &lawyersJSON); err != nil {
			return nil, nil, fmt.Errorf("scan case: %w", err)
		}
		c.AssignedLawyers = decodeLawyers(lawyersJSON)
		cases = append(cases, c)
	}
	if err := caseRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate cases: %w", err)
	}

	return documents, cases, nil
}

func decodeLawyers(raw []byte) []string {
	lawyers := []string{}
	if len(raw) == 0 {
		return lawyers
	}
	if err := json.Unmarshal(raw, &lawyers); err != nil {
		return []string{}
	}
	return lawyers
}
