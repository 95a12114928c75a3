package repository

import (
	"context"
	"fmt"

	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

// DocumentRepository handles document records
type DocumentRepository struct {
	db database.Caller
}

func NewDocumentRepository(db database.Caller) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// GetForUser lists documents visible to userID, optionally for one course.
func (r *DocumentRepository) GetForUser(ctx context.Context, userID int64, courseID *int64) ([]models.Document, error) {
	return callList[models.Document](ctx, r.db, "documents", "spDocuments_GetByUser",
		database.P("userId", userID),
		database.P("courseId", nullable(courseID)),
	)
}

// GetByID returns nil when the document does not exist.
func (r *DocumentRepository) GetByID(ctx context.Context, userID, documentID int64) (*models.Document, error) {
	return callOne[models.Document](ctx, r.db, "document", "spDocuments_GetById",
		database.P("userId", userID),
		database.P("documentId", documentID),
	)
}

// Create inserts the record, its labels, and a notification for the course.
func (r *DocumentRepository) Create(ctx context.Context, doc models.Document) (*models.Document, error) {
	steps := []database.Step{
		step("spDocuments_Create",
			database.P("userId", doc.UserID),
			database.P("courseId", nullable(doc.CourseID)),
			database.P("title", doc.Title),
			database.P("description", doc.Description),
			database.P("url", doc.URL),
			database.P("labels", database.StringList(doc.Labels)),
		),
	}
	if doc.CourseID != nil {
		steps = append(steps, step("spNotifications_CreateForCourse",
			database.P("courseId", *doc.CourseID),
			database.P("title", "New document"),
			database.P("message", doc.Title),
		))
	}

	res, err := mutate(ctx, r.db, doc.UserID, "document_create", steps...)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	created, err := decodeOne[models.Document](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("failed to create document: no record returned")
	}
	return created, nil
}

// Update changes title, description and labels.
func (r *DocumentRepository) Update(ctx context.Context, userID int64, doc models.Document) error {
	_, err := mutate(ctx, r.db, userID, "document_update",
		step("spDocuments_Update",
			database.P("userId", userID),
			database.P("documentId", doc.DocumentID),
			database.P("title", doc.Title),
			database.P("description", doc.Description),
		),
		step("spDocuments_UpdateLabels",
			database.P("documentId", doc.DocumentID),
			database.P("labels", database.StringList(doc.Labels)),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, userID, documentID int64) error {
	_, err := mutate(ctx, r.db, userID, "document_delete",
		step("spDocuments_Delete", database.P("userId", userID), database.P("documentId", documentID)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
