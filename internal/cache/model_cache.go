package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"insightpaper/internal/models"
)

const modelsKey = "models:all"

// ModelCatalog is the model repository surface.
type ModelCatalog interface {
	GetAll(ctx context.Context) ([]models.Model, error)
	GetByID(ctx context.Context, modelID int64) (*models.Model, error)
	Create(ctx context.Context, actorID int64, m models.Model) (*models.Model, error)
	Update(ctx context.Context, actorID int64, m models.Model) error
	Delete(ctx context.Context, actorID, modelID int64) error
}

// CachedModels keeps the model list in process memory. Every write through
// it drops the cached list.
type CachedModels struct {
	next  ModelCatalog
	store *gocache.Cache
	ttl   time.Duration
}

// NewCachedModels wraps next with a cache whose entries live for ttl.
func NewCachedModels(next ModelCatalog, ttl time.Duration) *CachedModels {
	return &CachedModels{
		next:  next,
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// GetAll returns the cached list, loading it on a miss.
func (c *CachedModels) GetAll(ctx context.Context) ([]models.Model, error) {
	if cached, found := c.store.Get(modelsKey); found {
		return cached.([]models.Model), nil
	}
	list, err := c.next.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	c.store.Set(modelsKey, list, c.ttl)
	return list, nil
}

func (c *CachedModels) GetByID(ctx context.Context, modelID int64) (*models.Model, error) {
	list, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ModelID == modelID {
			m := list[i]
			return &m, nil
		}
	}
	return c.next.GetByID(ctx, modelID)
}

func (c *CachedModels) Create(ctx context.Context, actorID int64, m models.Model) (*models.Model, error) {
	defer c.Invalidate()
	created, err := c.next.Create(ctx, actorID, m)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	return created, nil
}

func (c *CachedModels) Update(ctx context.Context, actorID int64, m models.Model) error {
	defer c.Invalidate()
	return c.next.Update(ctx, actorID, m)
}

func (c *CachedModels) Delete(ctx context.Context, actorID, modelID int64) error {
	defer c.Invalidate()
	return c.next.Delete(ctx, actorID, modelID)
}

// Invalidate drops the cached list.
func (c *CachedModels) Invalidate() {
	c.store.Delete(modelsKey)
}
