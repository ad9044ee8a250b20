package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API（いいね・レビューは要ログイン）
type ProductHandler struct {
	uc       *usecase.ProductUsecase
	reviews  *usecase.ReviewUsecase
	favorite *usecase.FavoriteUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, reviews *usecase.ReviewUsecase, favorite *usecase.FavoriteUsecase) *ProductHandler {
	return &ProductHandler{uc: uc, reviews: reviews, favorite: favorite}
}

type ReviewCreateRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	auth := middleware.AuthJWT(cfg)

	e.GET("/products", h.list)
	e.GET("/products/top-5", h.topSelling)
	e.GET("/products/favorites/ids", h.favoriteIDs, auth)
	e.GET("/products/:id", h.detail)
	e.POST("/products/:id/like", h.toggleLike, auth)
	e.POST("/products/:id/reviews", h.addReview, auth)
}

func (h *ProductHandler) list(c echo.Context) error {
	out, err := h.uc.ListProducts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) topSelling(c echo.Context) error {
	out, err := h.uc.TopSelling(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) toggleLike(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.favorite.Toggle(c.Request().Context(), userID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) favoriteIDs(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	ids, err := h.favorite.ListFavoriteIDs(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ids)
}

func (h *ProductHandler) addReview(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ReviewCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.reviews.AddReview(c.Request().Context(), userID, productID, req.Rating, req.Comment); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Message: "review saved"})
}
