package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
	topSelling  TopSellingCache
	logger      *zap.Logger
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	productRepo repo.ProductRepository,
	topSelling TopSellingCache,
	logger *zap.Logger,
) *ProductUsecase {
	if topSelling == nil {
		topSelling = NoopTopSellingCache{}
	}
	return &ProductUsecase{
		tx:          tx,
		productRepo: productRepo,
		topSelling:  topSelling,
		logger:      logger,
	}
}

// 評価の高い順
func (u *ProductUsecase) ListProducts(ctx context.Context) ([]model.Product, error) {
	items, err := u.productRepo.ListByRating(ctx)
	if err != nil {
		return []model.Product{}, toUsecaseError(err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return items, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, invalidInput("id", "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, productNotFound(productID)
	}
	if err != nil {
		return model.Product{}, toUsecaseError(err)
	}
	return p, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	Images      []string
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, adminUserID int64, in CreateProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, invalidInput("user_id", "unauthorized")
	}

	p, err := model.NewProduct(model.NewProductParams{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Images:      in.Images,
	})
	if err != nil {
		return model.Product{}, productValidationError(err)
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return model.Product{}, toUsecaseError(err)
	}

	u.logger.Info("product created", zap.Int64("admin_user_id", adminUserID), zap.Int64("product_id", created.ID))
	u.invalidateTopSelling(ctx)
	return created, nil
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, adminUserID int64, productID int64, in model.ProductUpdate) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, invalidInput("user_id", "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, invalidInput("id", "invalid product id")
	}
	//先に検証だけしておく（DBに行く前に400を返す）
	if _, err := in.Columns(); err != nil {
		return model.Product{}, productValidationError(err)
	}

	err := u.productRepo.Update(ctx, productID, in)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, productNotFound(productID)
	}
	if err != nil {
		return model.Product{}, toUsecaseError(err)
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, toUsecaseError(err)
	}

	u.logger.Info("product updated", zap.Int64("admin_user_id", adminUserID), zap.Int64("product_id", productID))
	u.invalidateTopSelling(ctx)
	return p, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return invalidInput("user_id", "unauthorized")
	}
	if productID <= 0 {
		return invalidInput("id", "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return productNotFound(productID)
	}
	if err != nil {
		return toUsecaseError(err)
	}

	u.logger.Info("product deleted", zap.Int64("admin_user_id", adminUserID), zap.Int64("product_id", productID))
	u.invalidateTopSelling(ctx)
	return nil
}

// 商品の増減は売れ筋の穴埋めに影響する
func (u *ProductUsecase) invalidateTopSelling(ctx context.Context) {
	if err := u.topSelling.Invalidate(ctx); err != nil {
		u.logger.Warn("top selling cache invalidate failed", zap.Error(err))
	}
}

func productValidationError(err error) error {
	switch {
	case errors.Is(err, model.ErrProductNameRequired):
		return &Error{Kind: ErrInvalidInput, Field: "name", Message: err.Error(), cause: err}
	case errors.Is(err, model.ErrProductInvalidPrice):
		return &Error{Kind: ErrInvalidInput, Field: "price", Message: err.Error(), cause: err}
	case errors.Is(err, model.ErrProductInvalidStock):
		return &Error{Kind: ErrInvalidInput, Field: "stock", Message: err.Error(), cause: err}
	default:
		return internal(err)
	}
}
