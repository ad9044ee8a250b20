package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// ユースケースのエラーをステータスコードに変換する。
// 500の中身は外に出さない。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return c.JSON(status, ErrorResponse{Error: "internal error"})
	}

	res := ErrorResponse{Error: err.Error()}
	if ue, ok := usecase.AsError(err); ok {
		res.Field = ue.Field
		res.ProductID = ue.ProductID
	}
	return c.JSON(status, res)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInsufficientStock), errors.Is(err, usecase.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrInactive),
		errors.Is(err, usecase.ErrInvalidRating),
		errors.Is(err, usecase.ErrEmptyCart),
		errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

//middleware.AuthJWT が c.Set した値を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
