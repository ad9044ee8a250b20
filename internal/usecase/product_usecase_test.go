package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProductUsecase(s *memStore, cache usecase.TopSellingCache) *usecase.ProductUsecase {
	return usecase.NewProductUsecase(s, memProductRepo{s: s}, cache, zap.NewNop())
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	cache := &memTopSellingCache{}
	uc := newProductUsecase(s, cache)

	p, err := uc.CreateProduct(ctx, 1, usecase.CreateProductInput{Name: " Kettle ", Price: 3000, Stock: 2})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Kettle", p.Name)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{}, p.Images)
	assert.Equal(t, 1, cache.invalidates)

	got, err := uc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreateProduct_Validation(t *testing.T) {
	uc := newProductUsecase(newMemStore(), nil)

	cases := []struct {
		in    usecase.CreateProductInput
		field string
	}{
		{usecase.CreateProductInput{Name: "", Price: 1}, "name"},
		{usecase.CreateProductInput{Name: "A", Price: 0}, "price"},
		{usecase.CreateProductInput{Name: "A", Price: 1, Stock: -1}, "stock"},
	}
	for _, tc := range cases {
		_, err := uc.CreateProduct(context.Background(), 1, tc.in)
		require.ErrorIs(t, err, usecase.ErrInvalidInput)

		ue, ok := usecase.AsError(err)
		require.True(t, ok)
		assert.Equal(t, tc.field, ue.Field)
	}
}

func TestUpdateProduct_OnlyAllowedFields(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	uc := newProductUsecase(s, nil)

	p := s.seed(activeProduct("A", 100, 9))

	price := int64(250)
	inactive := false
	got, err := uc.UpdateProduct(ctx, 1, p.ID, model.ProductUpdate{Price: &price, IsActive: &inactive})
	require.NoError(t, err)

	assert.Equal(t, int64(250), got.Price)
	assert.False(t, got.IsActive)
	//在庫はこの経路では変わらない
	assert.Equal(t, int64(9), got.Stock)
	assert.Equal(t, "A", got.Name)
}

func TestUpdateProduct_Errors(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	uc := newProductUsecase(s, nil)

	price := int64(10)
	_, err := uc.UpdateProduct(ctx, 1, 77, model.ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	p := s.seed(activeProduct("A", 100, 9))
	bad := int64(-1)
	_, err = uc.UpdateProduct(ctx, 1, p.ID, model.ProductUpdate{Price: &bad})
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	uc := newProductUsecase(s, nil)

	p := s.seed(activeProduct("A", 100, 9))
	require.NoError(t, uc.DeleteProduct(ctx, 1, p.ID))

	_, err := uc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	err = uc.DeleteProduct(ctx, 1, p.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestListProducts_ByRating(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	uc := newProductUsecase(s, nil)

	low := activeProduct("low", 1, 1)
	low.Rating = 2
	high := activeProduct("high", 1, 1)
	high.Rating = 4.5
	none := activeProduct("none", 1, 1)
	s.seed(low)
	s.seed(high)
	s.seed(none)

	got, err := uc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "low", "none"}, names(got))
}
