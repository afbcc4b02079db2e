package apperr

import (
	"errors"

	"github.com/novasalud/inventory/pkg/zerror"
)

const (
	ValidationErrorCode              = "VALIDATION_FAILED"
	ProductNotFoundCode              = "PRODUCT_NOT_FOUND"
	InsufficientStockCode            = "INSUFFICIENT_STOCK"
	CartEmptyCode                    = "CART_EMPTY"
	AlertNotFoundCode                = "ALERT_NOT_FOUND"
	SessionRequiredCode              = "SESSION_REQUIRED"
	StorageUnavailableCode           = "STORAGE_UNAVAILABLE"
	PartialCheckoutInconsistencyCode = "PARTIAL_CHECKOUT_INCONSISTENCY"
)

var (
	ValidationErr         = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	ProductNotFoundErr    = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	InsufficientStockErr  = zerror.NewConflict(InsufficientStockCode, "requested quantity exceeds available stock")
	CartEmptyErr          = zerror.NewUnprocessableEntity(CartEmptyCode, "cart is empty, nothing to checkout")
	AlertNotFoundErr      = zerror.NewNotFound(AlertNotFoundCode, "alert not found")
	SessionRequiredErr    = zerror.NewUnauthorized(SessionRequiredCode, "session id is required")
	StorageUnavailableErr = zerror.NewServiceUnavailable(StorageUnavailableCode, "storage temporarily unavailable")

	// PartialCheckoutInconsistencyErr marks the state where stock was decremented
	// but neither the sale persisted nor the compensation completed. It requires
	// manual reconciliation and must never be downgraded to an ordinary failure.
	PartialCheckoutInconsistencyErr = zerror.NewInternalServerError(
		PartialCheckoutInconsistencyCode,
		"stock decremented but sale not persisted; manual reconciliation required",
	)
)

// IsCode reports whether err carries the given application error code
// anywhere in its chain. Parents attached via WrapParent do not break the
// match, unlike a plain errors.Is against the bare sentinel.
func IsCode(err error, code string) bool {
	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		return zErr.Code() == code
	}
	return false
}
