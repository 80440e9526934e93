package domain

import "errors"

// Workflow errors. Callers match them with errors.Is; causes are wrapped.
var (
	ErrAlreadyOwned       = errors.New("section-store: item already owned")
	ErrPurchaseInFlight   = errors.New("section-store: purchase attempt in flight")
	ErrBillingUnavailable = errors.New("section-store: billing gateway unavailable")
	ErrUnknownCharge      = errors.New("section-store: unknown charge")
	ErrChargeDeclined     = errors.New("section-store: charge declined")
	ErrChargeNotApproved  = errors.New("section-store: charge not approved yet")
	ErrNotEntitled        = errors.New("section-store: shop is not entitled to section")
	ErrInstallWriteFailed = errors.New("section-store: theme asset write failed")
	ErrCascadeFailure     = errors.New("section-store: shop redaction cascade failed")
)

// Lookup and store errors.
var (
	ErrShopNotFound    = errors.New("section-store: shop not found")
	ErrSectionNotFound = errors.New("section-store: section not found")
	ErrBundleNotFound  = errors.New("section-store: bundle not found")
	ErrThemeNotFound   = errors.New("section-store: theme not found")
	ErrInvalidInput    = errors.New("section-store: invalid input")
	ErrConflict        = errors.New("section-store: unique constraint violated")
	ErrInvalidSession  = errors.New("section-store: invalid session")
	ErrInvalidState    = errors.New("section-store: invalid oauth state")
)

// IsRetryable reports whether the caller may retry the same request later
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBillingUnavailable) ||
		errors.Is(err, ErrInstallWriteFailed) ||
		errors.Is(err, ErrPurchaseInFlight)
}

// IsNotFound reports whether err is one of the lookup errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShopNotFound) ||
		errors.Is(err, ErrSectionNotFound) ||
		errors.Is(err, ErrBundleNotFound) ||
		errors.Is(err, ErrThemeNotFound) ||
		errors.Is(err, ErrUnknownCharge)
}
