//go:build integration

package productrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/repository/pgtest"
	"stockledger/internal/repository/productrepo"
)

// memCache guarda strings em memória para observar o cache-aside.
type memCache struct {
	cache.NopClient
	data map[string]string
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	}
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestProductRepository_CacheAside(t *testing.T) {
	db := pgtest.New(t)
	mc := &memCache{data: map[string]string{}}
	repo := productrepo.NewProductRepository(db, mc, 5*time.Second, time.Minute, nil, logger.NewNopLogger())
	ctx := context.Background()

	created, err := repo.Save(ctx, domain.Product{
		Name: "XR4000", Category: domain.CategoryEdgeServer, SKU: "SKU-4000", PartNumber: "PN-4000",
		Family: "PowerEdge XR", Status: domain.ProductEnabled, Specs: map[string]string{"memory": "512GB"},
	})
	require.NoError(t, err)

	first, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "512GB", first.Specs["memory"])
	assert.Contains(t, mc.data, "product:"+created.ID)

	first.Status = domain.ProductDisabled
	require.NoError(t, repo.Update(ctx, first))
	assert.NotContains(t, mc.data, "product:"+created.ID, "update invalida o cache")

	again, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductDisabled, again.Status)

	enabled, err := repo.FindAll(ctx, domain.ProductFilter{EnabledOnly: true})
	require.NoError(t, err)
	assert.Empty(t, enabled)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.True(t, apperror.IsNotFound(err))
}
