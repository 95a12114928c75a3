package repository

import (
	"context"
	"fmt"

	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

// ModelRepository handles the catalogue of LLMs users can pick from
type ModelRepository struct {
	db database.Caller
}

func NewModelRepository(db database.Caller) *ModelRepository {
	return &ModelRepository{db: db}
}

func (r *ModelRepository) GetAll(ctx context.Context) ([]models.Model, error) {
	return callList[models.Model](ctx, r.db, "models", "spModels_GetAll")
}

func (r *ModelRepository) GetByID(ctx context.Context, modelID int64) (*models.Model, error) {
	return callOne[models.Model](ctx, r.db, "model", "spModels_GetById", database.P("modelId", modelID))
}

func (r *ModelRepository) Create(ctx context.Context, actorID int64, m models.Model) (*models.Model, error) {
	res, err := mutate(ctx, r.db, actorID, "model_create",
		step("spModels_Create",
			database.P("name", m.Name),
			database.P("provider", m.Provider),
			database.P("description", m.Description),
			database.P("enabled", m.Enabled),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	created, err := decodeOne[models.Model](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if created == nil {
		return &m, nil
	}
	return created, nil
}

func (r *ModelRepository) Update(ctx context.Context, actorID int64, m models.Model) error {
	_, err := mutate(ctx, r.db, actorID, "model_update",
		step("spModels_Update",
			database.P("modelId", m.ModelID),
			database.P("name", m.Name),
			database.P("provider", m.Provider),
			database.P("description", m.Description),
			database.P("enabled", m.Enabled),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}
	return nil
}

func (r *ModelRepository) Delete(ctx context.Context, actorID, modelID int64) error {
	_, err := mutate(ctx, r.db, actorID, "model_delete",
		step("spModels_Delete", database.P("modelId", modelID)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	return nil
}
