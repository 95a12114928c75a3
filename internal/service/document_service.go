package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"insightpaper/internal/apperr"
	"insightpaper/internal/llm"
	"insightpaper/internal/models"
	"insightpaper/internal/storage"
	"insightpaper/internal/validation"
)

// DocumentStore is the document persistence the service needs.
type DocumentStore interface {
	GetForUser(ctx context.Context, userID int64, courseID *int64) ([]models.Document, error)
	GetByID(ctx context.Context, userID, documentID int64) (*models.Document, error)
	Create(ctx context.Context, doc models.Document) (*models.Document, error)
	Update(ctx context.Context, userID int64, doc models.Document) error
	Delete(ctx context.Context, userID, documentID int64) error
}

// SearchIndex is the document side of the LLM service.
type SearchIndex interface {
	AddDocument(ctx context.Context, doc llm.IndexDocument) error
	DeleteDocument(ctx context.Context, documentID int64) error
	Search(ctx context.Context, query string, documentID int64) ([]models.SearchHit, error)
}

// BlobStore stores uploaded files.
type BlobStore interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error)
}

// DocumentMailer tells students about new documents.
type DocumentMailer interface {
	SendNewDocument(ctx context.Context, to, courseName, title string) error
}

// CourseReader is the course lookup the document and question flows need.
type CourseReader interface {
	GetByID(ctx context.Context, userID, courseID int64) (*models.Course, error)
	GetStudents(ctx context.Context, courseID int64) ([]models.Student, error)
}

// DocumentResult is a created document plus the side effects' outcome.
type DocumentResult struct {
	Document *models.Document `json:"document"`
	Indexed  bool             `json:"indexed"`
	DeliveryReport
}

// SearchResult holds the hits for one document.
type SearchResult struct {
	DocumentID int64              `json:"documentId"`
	Hits       []models.SearchHit `json:"hits"`
}

// DocumentService handles documents, the search index and uploads
type DocumentService struct {
	documents   DocumentStore
	courses     CourseReader
	index       SearchIndex
	blobs       BlobStore
	mailer      DocumentMailer
	concurrency int
	now         func() time.Time
}

func NewDocumentService(documents DocumentStore, courses CourseReader, index SearchIndex, blobs BlobStore, mailer DocumentMailer, concurrency int) *DocumentService {
	return &DocumentService{
		documents:   documents,
		courses:     courses,
		index:       index,
		blobs:       blobs,
		mailer:      mailer,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (s *DocumentService) List(ctx context.Context, userID int64, courseID *int64) ([]models.Document, error) {
	return s.documents.GetForUser(ctx, userID, courseID)
}

// Upload stores a file and returns its download URL.
func (s *DocumentService) Upload(ctx context.Context, courseID *int64, title, contentType string, body io.Reader) (string, error) {
	if err := validation.Required("title", title); err != nil {
		return "", err
	}
	if s.blobs == nil {
		return "", apperr.Internal(fmt.Errorf("blob storage is not configured"))
	}
	url, err := s.blobs.Upload(ctx, storage.ObjectPath(courseID, title, s.now()), contentType, body)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return url, nil
}

// Create stores the record, adds it to the search index and emails the
// course's students. Index and email failures do not undo the record; a
// notification step that cannot run at all is reported as nothing sent.
func (s *DocumentService) Create(ctx context.Context, userID int64, doc models.Document) (*DocumentResult, error) {
	doc.Title = strings.TrimSpace(doc.Title)
	if err := validation.Required("title", doc.Title); err != nil {
		return nil, err
	}
	if err := validation.Required("url", doc.URL); err != nil {
		return nil, err
	}
	doc.UserID = userID

	created, err := s.documents.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	result := &DocumentResult{Document: created, Indexed: true, DeliveryReport: DeliveryReport{AllSent: true}}
	err = s.index.AddDocument(ctx, llm.IndexDocument{
		DocumentID: created.DocumentID,
		CourseID:   created.CourseID,
		Title:      created.Title,
		URL:        created.URL,
	})
	if err != nil {
		log.Printf("Error indexing document %d: %v", created.DocumentID, err)
		result.Indexed = false
	}

	if created.CourseID == nil {
		return result, nil
	}
	report, err := s.notifyStudents(ctx, userID, *created.CourseID, created.Title)
	if err != nil {
		log.Printf("Error notifying course %d of document %d: %v", *created.CourseID, created.DocumentID, err)
		report = DeliveryReport{AllSent: false}
	}
	result.DeliveryReport = report
	return result, nil
}

func (s *DocumentService) notifyStudents(ctx context.Context, userID, courseID int64, title string) (DeliveryReport, error) {
	course, err := s.courses.GetByID(ctx, userID, courseID)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return DeliveryReport{}, apperr.NotFound("course_not_found")
	}
	students, err := s.courses.GetStudents(ctx, courseID)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to get students: %w", err)
	}
	recipients := make([]string, 0, len(students))
	for _, st := range students {
		recipients = append(recipients, st.Email)
	}
	return fanOut(ctx, s.concurrency, recipients, func(ctx context.Context, to string) error {
		return s.mailer.SendNewDocument(ctx, to, course.Name, title)
	}), nil
}

func (s *DocumentService) Update(ctx context.Context, userID int64, doc models.Document) error {
	doc.Title = strings.TrimSpace(doc.Title)
	if err := validation.Required("title", doc.Title); err != nil {
		return err
	}
	if err := s.documents.Update(ctx, userID, doc); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// Delete removes the record, then the index entry. A stale index entry is
// logged, not reported.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID int64) error {
	if err := s.documents.Delete(ctx, userID, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := s.index.DeleteDocument(ctx, documentID); err != nil {
		log.Printf("Error removing document %d from index: %v", documentID, err)
	}
	return nil
}

// Search queries every document concurrently, bounded by the configured
// limit. Results keep the order of documentIDs; the first failure aborts.
func (s *DocumentService) Search(ctx context.Context, query string, documentIDs []int64) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if err := validation.Required("query", query); err != nil {
		return nil, err
	}
	if len(documentIDs) == 0 {
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, len(documentIDs))
	g, gctx := errgroup.WithContext(ctx)
	limit := s.concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, id := range documentIDs {
		g.Go(func() error {
			hits, err := s.index.Search(gctx, query, id)
			if err != nil {
				return fmt.Errorf("search document %d: %w", id, err)
			}
			results[i] = SearchResult{DocumentID: id, Hits: hits}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}
	return results, nil
}
