package usecase

import (
	"errors"
	"fmt"
)

// 注文・在庫・レビューで返すエラーの種類。errors.Isで判定する。
var (
	//404 商品や注文が無い
	ErrNotFound = errors.New("not found")

	//400 非公開の商品
	ErrInactive = errors.New("product inactive")

	//409 在庫不足
	ErrInsufficientStock = errors.New("insufficient stock")

	//400 評価が1〜5の範囲外
	ErrInvalidRating = errors.New("invalid rating")

	//400 入力の形が不正
	ErrInvalidInput = errors.New("invalid input")

	//400 カートが空
	ErrEmptyCart = errors.New("cart is empty")

	//409 リトライしてもコミットできなかった
	ErrConflict = errors.New("conflict")

	//500
	ErrInternal = errors.New("internal error")
)

// Error はエラーの種類に、失敗した商品や項目の情報を添える。
type Error struct {
	Kind      error
	ProductID int64
	Field     string
	Message   string

	cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func productNotFound(productID int64) error {
	return &Error{
		Kind:      ErrNotFound,
		ProductID: productID,
		Message:   fmt.Sprintf("product #%d not found", productID),
	}
}

func orderNotFound(orderID int64) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("order #%d not found", orderID)}
}

func productInactive(productID int64, name string) error {
	return &Error{
		Kind:      ErrInactive,
		ProductID: productID,
		Message:   fmt.Sprintf("product %q is disabled", name),
	}
}

func insufficientStock(productID, requested, available int64) error {
	return &Error{
		Kind:      ErrInsufficientStock,
		ProductID: productID,
		Message:   fmt.Sprintf("product #%d: requested %d, available %d", productID, requested, available),
	}
}

func invalidRating(rating int) error {
	return &Error{
		Kind:    ErrInvalidRating,
		Field:   "rating",
		Message: fmt.Sprintf("rating must be between 1 and 5, got %d", rating),
	}
}

func invalidInput(field, msg string) error {
	return &Error{Kind: ErrInvalidInput, Field: field, Message: msg}
}

func conflict(cause error) error {
	return &Error{Kind: ErrConflict, Message: "could not commit, resubmit the request", cause: cause}
}

func internal(cause error) error {
	return &Error{Kind: ErrInternal, cause: cause}
}

// KindLabel はメトリクス用の短い名前を返す。
func KindLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidRating):
		return "invalid_rating"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
