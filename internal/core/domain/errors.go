package domain

import "github.com/manan0901/Vibecoder-sub000/internal/apperrors"

// Named settlement errors. Each carries its kind, so callers can match either the
// specific condition or the broad class with errors.Is.
var (
	ErrAlreadyPurchased      = apperrors.NewEligibilityError("project already purchased by buyer")
	ErrProjectNotPurchasable = apperrors.NewEligibilityError("project is not available for purchase")
	ErrSelfPurchase          = apperrors.NewEligibilityError("sellers cannot purchase their own project")
	ErrBuyerInactive         = apperrors.NewEligibilityError("buyer account is not active")
	ErrAmountMismatch        = apperrors.NewValidationFailedError("amount does not match project price")
	ErrInvalidSignature      = apperrors.NewSignatureError("payment signature verification failed")
	ErrPaymentMismatch       = apperrors.NewConflictError("gateway payment does not match order")
	ErrPaymentNotCaptured    = apperrors.NewConflictError("payment is authorized but not yet captured")
	ErrNotOrderBuyer         = apperrors.NewAppError(403, "only the buyer can settle this order", nil)
	ErrDuplicatePurchaseRace = apperrors.NewConflictError("project was purchased by a concurrent settlement")
	ErrNotSettleable         = apperrors.NewConflictError("transaction is not awaiting settlement")
	ErrAlreadyRefunded       = apperrors.NewRefundError("transaction already refunded")
	ErrNotRefundable         = apperrors.NewConflictError("transaction is not in a refundable state")
	ErrRefundRejected        = apperrors.NewRefundError("gateway rejected the refund")
)
