package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightpaper/internal/models"
)

type countingCatalog struct {
	list  []models.Model
	loads int
}

func (c *countingCatalog) GetAll(context.Context) ([]models.Model, error) {
	c.loads++
	return c.list, nil
}

func (c *countingCatalog) GetByID(_ context.Context, id int64) (*models.Model, error) {
	return nil, nil
}

func (c *countingCatalog) Create(_ context.Context, _ int64, m models.Model) (*models.Model, error) {
	m.ModelID = int64(len(c.list) + 1)
	c.list = append(c.list, m)
	return &m, nil
}

func (c *countingCatalog) Update(context.Context, int64, models.Model) error { return nil }
func (c *countingCatalog) Delete(context.Context, int64, int64) error        { return nil }

func TestCachedModelsServesFromMemory(t *testing.T) {
	next := &countingCatalog{list: []models.Model{{ModelID: 1, Name: "gpt-4o"}}}
	cached := NewCachedModels(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := cached.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	assert.Equal(t, 1, next.loads)

	m, err := cached.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m.Name)
	assert.Equal(t, 1, next.loads)
}

func TestCachedModelsInvalidatesOnWrite(t *testing.T) {
	next := &countingCatalog{list: []models.Model{{ModelID: 1, Name: "gpt-4o"}}}
	cached := NewCachedModels(next, time.Minute)
	ctx := context.Background()

	_, err := cached.GetAll(ctx)
	require.NoError(t, err)

	_, err = cached.Create(ctx, 9, models.Model{Name: "llama"})
	require.NoError(t, err)

	list, err := cached.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, next.loads)
}
