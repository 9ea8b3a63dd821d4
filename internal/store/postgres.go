package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE email=$1
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ListLawyers returns every user with the lawyer role, oldest first. Callers
// snapshot the result; assignment sets are never re-derived later.
func (s *PostgresStore) ListLawyers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE role='lawyer'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list lawyers: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lawyer: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lawyers: %w", err)
	}
	return items, nil
}

// ---- documents ----

const documentColumns = `id, owner_id, owner_email, title, body, category, status, analysis, uploaded_at`

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var item Document
	var analysisRaw []byte
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.OwnerEmail,
		&item.Title,
		&item.Text,
		&item.Category,
		&item.Status,
		&analysisRaw,
		&item.UploadedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if len(analysisRaw) > 0 {
		if err := json.Unmarshal(analysisRaw, &item.Analysis); err != nil {
			return Document{}, fmt.Errorf("decode analysis: %w", err)
		}
	}
	return item, nil
}

func (s *PostgresStore) InsertDocument(ctx context.Context, item Document) error {
	analysisRaw, err := json.Marshal(item.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, owner_id, owner_email, title, body, category, status, analysis, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
	`, item.ID, item.OwnerID, item.OwnerEmail, item.Title, item.Text, item.Category, item.Status, string(analysisRaw), item.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	item, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id=$1`, documentID))
	if err != nil {
		return Document{}, err
	}
	revisions, err := s.listRevisions(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	item.Revisions = revisions
	return item, nil
}

func (s *PostgresStore) ListDocumentsByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	return s.listDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id=$1 ORDER BY uploaded_at DESC`, ownerID)
}

// ListDocumentsForLawyer returns documents where the lawyer appears in the
// assignment snapshot of at least one escalation.
func (s *PostgresStore) ListDocumentsForLawyer(ctx context.Context, lawyerID string) ([]Document, error) {
	return s.listDocuments(ctx, `
		SELECT DISTINCT d.id, d.owner_id, d.owner_email, d.title, d.body, d.category, d.status, d.analysis, d.uploaded_at
		FROM documents d
		JOIN escalations e ON e.document_id = d.id
		WHERE e.assigned_lawyers @> to_jsonb($1::text)
		ORDER BY d.uploaded_at DESC
	`, lawyerID)
}

func (s *PostgresStore) listDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		item, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	for i := range items {
		revisions, err := s.listRevisions(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Revisions = revisions
	}
	return items, nil
}

func (s *PostgresStore) listRevisions(ctx context.Context, documentID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT revised_text, comments, lawyer_name, created_at
		FROM document_revisions
		WHERE document_id=$1
		ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	items := make([]Revision, 0)
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.RevisedText, &rev.Comments, &rev.LawyerName, &rev.Date); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		items = append(items, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return items, nil
}

// DeleteDocument removes a document. Referencing escalations and revisions
// go with it through the FK cascade, so the delete is a single atomic
// statement and no observer sees a case pointing at a missing document.
func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---- escalations ----

const escalationColumns = `id, document_id, document_title, requester_id, requester_name, requester_email, assigned_lawyers, status, created_at`

func scanEscalation(row interface{ Scan(...any) error }) (Escalation, error) {
	var item Escalation
	var assignedRaw []byte
	err := row.Scan(
		&item.ID,
		&item.DocumentID,
		&item.DocumentTitle,
		&item.RequesterID,
		&item.RequesterName,
		&item.RequesterEmail,
		&assignedRaw,
		&item.Status,
		&item.CreatedAt,
	)
	if err != nil {
		return Escalation{}, err
	}
	if len(assignedRaw) > 0 {
		if err := json.Unmarshal(assignedRaw, &item.AssignedLawyers); err != nil {
			return Escalation{}, fmt.Errorf("decode assigned lawyers: %w", err)
		}
	}
	return item, nil
}

// CreateEscalation inserts the case and marks the document escalated in one
// transaction: readers never see one write without the other.
func (s *PostgresStore) CreateEscalation(ctx context.Context, item Escalation) error {
	assignedRaw, err := json.Marshal(item.AssignedLawyers)
	if err != nil {
		return fmt.Errorf("encode assigned lawyers: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin escalation tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO escalations (id, document_id, document_title, requester_id, requester_name, requester_email, assigned_lawyers, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
	`, item.ID, item.DocumentID, item.DocumentTitle, item.RequesterID, item.RequesterName, item.RequesterEmail, string(assignedRaw), item.Status, item.CreatedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert escalation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET status=$2 WHERE id=$1`, item.DocumentID, DocStatusEscalated); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mark document escalated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit escalation tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEscalation(ctx context.Context, escalationID string) (Escalation, error) {
	return scanEscalation(s.db.QueryRowContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations WHERE id=$1`, escalationID))
}

// GetEscalationForLawyer looks up a case only if the lawyer is in its
// assignment snapshot; anything else reads as not found.
func (s *PostgresStore) GetEscalationForLawyer(ctx context.Context, escalationID, lawyerID string) (Escalation, error) {
	return scanEscalation(s.db.QueryRowContext(ctx, `
		SELECT `+escalationColumns+`
		FROM escalations
		WHERE id=$1 AND assigned_lawyers @> to_jsonb($2::text)
	`, escalationID, lawyerID))
}

func (s *PostgresStore) ListEscalationsForLawyer(ctx context.Context, lawyerID string) ([]Escalation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+escalationColumns+`
		FROM escalations
		WHERE assigned_lawyers @> to_jsonb($1::text)
		ORDER BY created_at DESC
	`, lawyerID)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()

	items := make([]Escalation, 0)
	for rows.Next() {
		item, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan escalation: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escalations: %w", err)
	}
	return items, nil
}

// AcceptEscalation moves a case from pending to review_in_progress. The
// status predicate makes concurrent accepts race safely: exactly one update
// reports an affected row.
func (s *PostgresStore) AcceptEscalation(ctx context.Context, escalationID, lawyerID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE escalations
		SET status=$3
		WHERE id=$1 AND assigned_lawyers @> to_jsonb($2::text) AND status=$4
	`, escalationID, lawyerID, CaseStatusInReview, CaseStatusPending)
	if err != nil {
		return false, fmt.Errorf("accept escalation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("accept escalation rows: %w", err)
	}
	return affected > 0, nil
}

// ResolveEscalation appends the reviewer's revision, marks the document
// resolved, and marks the case resolved as one transaction. The conditional
// case update doubles as the terminal-state guard: resolving an already
// resolved case affects zero rows and the whole unit rolls back.
func (s *PostgresStore) ResolveEscalation(ctx context.Context, escalationID, documentID string, rev Revision) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin resolve tx: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE escalations SET status=$2 WHERE id=$1 AND status <> $2
	`, escalationID, CaseStatusResolved)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("mark escalation resolved: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("mark escalation resolved rows: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_revisions (document_id, revised_text, comments, lawyer_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, documentID, rev.RevisedText, rev.Comments, rev.LawyerName, rev.Date); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("insert revision: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET status=$2 WHERE id=$1`, documentID, DocStatusResolved); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("mark document resolved: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit resolve tx: %w", err)
	}
	return true, nil
}

// IsNotFound reports whether err is the store's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
