package service

import (
	"context"
	"strings"

	"insightpaper/internal/cache"
	"insightpaper/internal/models"
	"insightpaper/internal/validation"
)

// ModelService manages the LLM catalogue
type ModelService struct {
	catalog cache.ModelCatalog
}

func NewModelService(catalog cache.ModelCatalog) *ModelService {
	return &ModelService{catalog: catalog}
}

func (s *ModelService) List(ctx context.Context) ([]models.Model, error) {
	return s.catalog.GetAll(ctx)
}

func (s *ModelService) GetByID(ctx context.Context, modelID int64) (*models.Model, error) {
	return s.catalog.GetByID(ctx, modelID)
}

func (s *ModelService) Create(ctx context.Context, actorID int64, m models.Model) (*models.Model, error) {
	m.Name = strings.TrimSpace(m.Name)
	if err := validation.Required("name", m.Name); err != nil {
		return nil, err
	}
	return s.catalog.Create(ctx, actorID, m)
}

func (s *ModelService) Update(ctx context.Context, actorID int64, m models.Model) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := validation.Required("name", m.Name); err != nil {
		return err
	}
	return s.catalog.Update(ctx, actorID, m)
}

func (s *ModelService) Delete(ctx context.Context, actorID, modelID int64) error {
	return s.catalog.Delete(ctx, actorID, modelID)
}
