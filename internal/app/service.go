package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"lexrelay/api/internal/analysis"
	"lexrelay/api/internal/archive"
	"lexrelay/api/internal/auth"
	"lexrelay/api/internal/authpw"
	"lexrelay/api/internal/cache"
	"lexrelay/api/internal/config"
	"lexrelay/api/internal/email"
	"lexrelay/api/internal/export"
	"lexrelay/api/internal/rbac"
	"lexrelay/api/internal/search"
	"lexrelay/api/internal/store"
	"lexrelay/api/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	UserName  string
	Email     string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

type dataStore interface {
	CreateUser(context.Context, store.User) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	ListLawyers(context.Context) ([]store.User, error)
	InsertDocument(context.Context, store.Document) error
	GetDocument(context.Context, string) (store.Document, error)
	ListDocumentsByOwner(context.Context, string) ([]store.Document, error)
	ListDocumentsForLawyer(context.Context, string) ([]store.Document, error)
	DeleteDocument(context.Context, string) error
	CreateEscalation(context.Context, store.Escalation) error
	GetEscalation(context.Context, string) (store.Escalation, error)
	GetEscalationForLawyer(context.Context, string, string) (store.Escalation, error)
	ListEscalationsForLawyer(context.Context, string) ([]store.Escalation, error)
	AcceptEscalation(context.Context, string, string) (bool, error)
	ResolveEscalation(context.Context, string, string, store.Revision) (bool, error)
	Ping(ctx context.Context) error
}

// analyzer is the analysis adapter contract: it never fails outward, it
// always hands back a populated result.
type analyzer interface {
	Analyze(ctx context.Context, text string) analysis.Result
}

type Service struct {
	cfg      config.Config
	store    dataStore
	accounts *authpw.Service
	analyzer analyzer
	cache    *cache.AnalysisCache
	search   *search.Service
	mailer   *email.Service
	archive  *archive.Store
	exporter *export.Service
}

// New wires the service. cache, search, mailer, and archive are optional
// collaborators and may be nil; the corresponding features turn into no-ops.
func New(
	cfg config.Config,
	dataStore dataStore,
	gemini analyzer,
	analysisCache *cache.AnalysisCache,
	searchSvc *search.Service,
	mailer *email.Service,
	archiveStore *archive.Store,
) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		accounts: authpw.NewService(dataStore),
		analyzer: gemini,
		cache:    analysisCache,
		search:   searchSvc,
		mailer:   mailer,
		archive:  archiveStore,
		exporter: export.NewService(),
	}
}

// ---- sessions ----

func (s *Service) Register(ctx context.Context, name, emailAddr, password, role string) (Session, error) {
	user, err := s.accounts.Register(ctx, authpw.RegisterRequest{
		Name:     name,
		Email:    emailAddr,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(user)
}

func (s *Service) Login(ctx context.Context, emailAddr, password string) (Session, error) {
	user, err := s.accounts.Login(ctx, emailAddr, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(user)
}

func (s *Service) issueSession(user store.User) (Session, error) {
	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  user.ID,
		Role: user.Role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Email:     user.Email,
		Role:      user.Role,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Email:     user.Email,
		Role:      user.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// ---- documents ----

func (s *Service) CreateDocument(ctx context.Context, session Session, title, text, category string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(text) == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", nil)
	}
	if category == "" {
		category = "contract"
	}

	// Analysis is synchronous and never blocks the create: a provider
	// failure degrades into a fallback record.
	result := s.analyzeWithCache(ctx, text)

	doc := store.Document{
		ID:         util.NewID("doc"),
		OwnerID:    session.UserID,
		OwnerEmail: session.Email,
		Title:      title,
		Text:       text,
		Category:   category,
		Status:     store.DocStatusAnalyzed,
		Analysis:   toStoredAnalysis(result),
		Revisions:  []store.Revision{},
		UploadedAt: time.Now(),
	}

	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.archivePut(doc)
	s.indexDocument(doc)

	return documentPayload(doc), nil
}

func (s *Service) analyzeWithCache(ctx context.Context, text string) analysis.Result {
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, text); err == nil && ok {
			return cached
		} else if err != nil {
			log.Printf("cache: analysis lookup failed: %v", err)
		}
	}

	result := s.analyzer.Analyze(ctx, text)

	if s.cache != nil && result.Succeeded {
		if err := s.cache.Put(ctx, text, result); err != nil {
			log.Printf("cache: analysis store failed: %v", err)
		}
	}
	return result
}

func (s *Service) ListDocuments(ctx context.Context, session Session) ([]map[string]any, error) {
	var documents []store.Document
	var err error

	switch {
	case s.Can(session.Role, rbac.ActionListOwnDocuments):
		documents, err = s.store.ListDocumentsByOwner(ctx, session.UserID)
	case s.Can(session.Role, rbac.ActionListAssignedDocuments):
		documents, err = s.store.ListDocumentsForLawyer(ctx, session.UserID)
	default:
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Unauthorized", nil)
	}
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(documents))
	for _, doc := range documents {
		items = append(items, documentPayload(doc))
	}
	return items, nil
}

// GetDocument fetches by id with no ownership check, matching the observed
// list/delete asymmetry.
func (s *Service) GetDocument(ctx context.Context, documentID string) (map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
		}
		return nil, err
	}
	return documentPayload(doc), nil
}

func (s *Service) DeleteDocument(ctx context.Context, session Session, documentID string) error {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if store.IsNotFound(err) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
		}
		return err
	}

	// Escalation locks the document against the original owner.
	if doc.Status == store.DocStatusEscalated && session.Role == string(rbac.RoleUser) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Document is locked. Lawyer is handling this case.", nil)
	}

	if session.Role == string(rbac.RoleUser) && doc.OwnerID != session.UserID {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Not your document", nil)
	}

	// Referencing cases go with the document through the FK cascade.
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		if store.IsNotFound(err) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
		}
		return err
	}

	s.archiveRemove(documentID)
	if s.search != nil {
		s.search.DeleteDocument(documentID)
	}
	return nil
}

// ---- escalations ----

func (s *Service) Escalate(ctx context.Context, session Session, documentID string) (map[string]any, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "documentId is required", nil)
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil || doc.OwnerID != session.UserID {
		if err == nil || store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Document not found or not owned by you", nil)
		}
		return nil, err
	}

	lawyers, err := s.store.ListLawyers(ctx)
	if err != nil {
		return nil, err
	}
	if len(lawyers) == 0 {
		return nil, domainError(http.StatusBadRequest, "INVALID_STATE", "No lawyers available", nil)
	}

	assigned := make([]string, 0, len(lawyers))
	for _, lawyer := range lawyers {
		assigned = append(assigned, lawyer.ID)
	}

	item := store.Escalation{
		ID:              util.NewID("esc"),
		DocumentID:      doc.ID,
		DocumentTitle:   doc.Title,
		RequesterID:     session.UserID,
		RequesterName:   session.UserName,
		RequesterEmail:  session.Email,
		AssignedLawyers: assigned,
		Status:          store.CaseStatusPending,
		CreatedAt:       time.Now(),
	}

	// Case insert and document status change land in one transaction.
	if err := s.store.CreateEscalation(ctx, item); err != nil {
		return nil, err
	}

	s.notifyCaseAssigned(item, lawyers)
	s.indexCase(item)

	return map[string]any{
		"message":      "Escalated to all lawyers",
		"escalationId": item.ID,
	}, nil
}

func (s *Service) ListCases(ctx context.Context, session Session) ([]map[string]any, error) {
	cases, err := s.store.ListEscalationsForLawyer(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(cases))
	for _, item := range cases {
		items = append(items, escalationPayload(item))
	}
	return items, nil
}

// AcceptCase moves pending → review_in_progress. Under concurrent accepts
// the conditional update lets exactly one caller through.
func (s *Service) AcceptCase(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	if _, err := s.store.GetEscalationForLawyer(ctx, caseID, session.UserID); err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Case not found or not assigned to you", nil)
		}
		return nil, err
	}

	accepted, err := s.store.AcceptEscalation(ctx, caseID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, domainError(http.StatusBadRequest, "INVALID_STATE", "Case is no longer pending", nil)
	}

	item, err := s.store.GetEscalation(ctx, caseID)
	if err != nil {
		return nil, err
	}
	s.indexCase(item)
	return escalationPayload(item), nil
}

func (s *Service) SubmitReview(ctx context.Context, session Session, caseID, editedClause, comments string) (map[string]any, error) {
	if strings.TrimSpace(editedClause) == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "edited_clause is required", nil)
	}

	item, err := s.store.GetEscalationForLawyer(ctx, caseID, session.UserID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Case not found or not assigned to you", nil)
		}
		return nil, err
	}

	rev := store.Revision{
		RevisedText: editedClause,
		Comments:    comments,
		LawyerName:  session.UserName,
		Date:        time.Now(),
	}

	// Revision append, document resolution, and case resolution commit as a
	// unit; a second submit on a resolved case affects nothing.
	resolved, err := s.store.ResolveEscalation(ctx, caseID, item.DocumentID, rev)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Case not found or not assigned to you", nil)
	}

	s.notifyCaseResolved(item, session.UserName)

	item.Status = store.CaseStatusResolved
	s.indexCase(item)
	if doc, err := s.store.GetDocument(ctx, item.DocumentID); err == nil {
		s.indexDocument(doc)
	}

	return map[string]any{"message": "Case resolved successfully"}, nil
}

// ---- search ----

func (s *Service) Search(session Session, text, filterType string, limit, offset int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Total: 0, Query: text}
	}

	q := search.Query{
		Text:       text,
		FilterType: search.ResultType(filterType),
		Limit:      limit,
		Offset:     offset,
	}
	if session.Role == string(rbac.RoleLawyer) {
		q.LawyerID = session.UserID
	} else {
		q.OwnerID = session.UserID
	}
	return s.search.Search(q)
}

// ---- export ----

func (s *Service) ExportDocument(ctx context.Context, session Session, documentID string, format export.Format) (*export.Result, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
		}
		return nil, err
	}

	if !s.canViewReport(ctx, session, doc) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Not your document", nil)
	}

	report := export.Report{
		Title:           doc.Title,
		OwnerEmail:      doc.OwnerEmail,
		Category:        doc.Category,
		Status:          doc.Status,
		Body:            doc.Text,
		Summary:         doc.Analysis.Summary,
		Flags:           doc.Analysis.Flags,
		SuggestedClause: doc.Analysis.SuggestedClause,
		UploadedAt:      doc.UploadedAt,
	}
	for _, rev := range doc.Revisions {
		report.Revisions = append(report.Revisions, export.RevisionEntry{
			LawyerName:  rev.LawyerName,
			Comments:    rev.Comments,
			RevisedText: rev.RevisedText,
			Date:        rev.Date,
		})
	}

	result, err := s.exporter.Export(report, format)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// canViewReport allows the owner, or a lawyer appearing in the assignment
// snapshot of a case for this document.
func (s *Service) canViewReport(ctx context.Context, session Session, doc store.Document) bool {
	if doc.OwnerID == session.UserID {
		return true
	}
	if session.Role != string(rbac.RoleLawyer) {
		return false
	}
	cases, err := s.store.ListEscalationsForLawyer(ctx, session.UserID)
	if err != nil {
		return false
	}
	for _, item := range cases {
		if item.DocumentID == doc.ID {
			return true
		}
	}
	return false
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ---- optional collaborators ----

func (s *Service) archivePut(doc store.Document) {
	if s.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.archive.PutDocument(ctx, doc.ID, doc.Text); err != nil {
			log.Printf("archive: %v", err)
		}
	}()
}

func (s *Service) archiveRemove(documentID string) {
	if s.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.archive.RemoveDocument(ctx, documentID); err != nil {
			log.Printf("archive: %v", err)
		}
	}()
}

func (s *Service) indexDocument(doc store.Document) {
	if s.search == nil {
		return
	}
	s.search.IndexDocument(search.DocumentRecord{
		ID:       doc.ID,
		Title:    doc.Title,
		Body:     doc.Text,
		Category: doc.Category,
		Status:   doc.Status,
		OwnerID:  doc.OwnerID,
	})
}

func (s *Service) indexCase(item store.Escalation) {
	if s.search == nil {
		return
	}
	s.search.IndexCase(search.CaseRecord{
		ID:              item.ID,
		DocumentID:      item.DocumentID,
		DocumentTitle:   item.DocumentTitle,
		RequesterName:   item.RequesterName,
		Status:          item.Status,
		AssignedLawyers: item.AssignedLawyers,
	})
}

func (s *Service) notifyCaseAssigned(item store.Escalation, lawyers []store.User) {
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}
	recipients := make([]string, 0, len(lawyers))
	for _, lawyer := range lawyers {
		recipients = append(recipients, lawyer.Email)
	}
	go func() {
		if err := s.mailer.SendCaseAssigned(recipients, item.DocumentTitle, item.RequesterName, item.ID); err != nil {
			log.Printf("email: case-assigned notification: %v", err)
		}
	}()
}

func (s *Service) notifyCaseResolved(item store.Escalation, lawyerName string) {
	if s.mailer == nil || !s.mailer.IsConfigured() || item.RequesterEmail == "" {
		return
	}
	go func() {
		if err := s.mailer.SendCaseResolved(item.RequesterEmail, item.DocumentTitle, lawyerName); err != nil {
			log.Printf("email: case-resolved notification: %v", err)
		}
	}()
}

// ---- payloads ----

func documentPayload(doc store.Document) map[string]any {
	revisions := make([]map[string]any, 0, len(doc.Revisions))
	for _, rev := range doc.Revisions {
		revisions = append(revisions, map[string]any{
			"revised_text": rev.RevisedText,
			"comments":     rev.Comments,
			"lawyerName":   rev.LawyerName,
			"date":         rev.Date,
		})
	}
	return map[string]any{
		"id":         doc.ID,
		"ownerId":    doc.OwnerID,
		"ownerEmail": doc.OwnerEmail,
		"title":      doc.Title,
		"text":       doc.Text,
		"category":   doc.Category,
		"status":     doc.Status,
		"analysis": map[string]any{
			"summary":          doc.Analysis.Summary,
			"flags":            doc.Analysis.Flags,
			"suggested_clause": doc.Analysis.SuggestedClause,
			"succeeded":        doc.Analysis.Succeeded,
		},
		"revisions":   revisions,
		"uploaded_at": doc.UploadedAt,
	}
}

func escalationPayload(item store.Escalation) map[string]any {
	return map[string]any{
		"id":              item.ID,
		"document_id":     item.DocumentID,
		"document_title":  item.DocumentTitle,
		"requester_id":    item.RequesterID,
		"requester_name":  item.RequesterName,
		"requester_email": item.RequesterEmail,
		"assignedLawyers": item.AssignedLawyers,
		"status":          item.Status,
		"created_at":      item.CreatedAt,
	}
}

func toStoredAnalysis(result analysis.Result) store.Analysis {
	return store.Analysis{
		Summary:         result.Summary,
		Flags:           result.Flags,
		SuggestedClause: result.SuggestedClause,
		Succeeded:       result.Succeeded,
	}
}
