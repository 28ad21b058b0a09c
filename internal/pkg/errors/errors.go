package errors

import "errors"

// Custom application errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidSubscription  = errors.New("invalid subscription")
	ErrDatabaseOperation    = errors.New("database operation failed")
	ErrCandidateFetch       = errors.New("failed to fetch reminder candidates") // Fatal to a reminder pass
	ErrDelivery             = errors.New("reminder delivery failed")
	ErrDuplicateReminder    = errors.New("reminder already sent for this window today")
	ErrScheduling           = errors.New("scheduling failed")
	ErrUnauthorized         = errors.New("missing or invalid user identity")
	ErrInternalServer       = errors.New("internal server error")
)

// DeliveryError wraps a mail transport failure. It unwraps to both ErrDelivery
// and the underlying transport error.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return "reminder delivery failed: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDelivery, e.Err}
}
