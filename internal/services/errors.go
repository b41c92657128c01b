package services

import (
	"errors"
	"fmt"
)

var (
	ErrEntitlementDenied   = errors.New("entitlement denied")
	ErrQuotaExhausted      = fmt.Errorf("%w: daily quota exhausted", ErrEntitlementDenied)
	ErrPaidTierRequired    = fmt.Errorf("%w: paid tier required", ErrEntitlementDenied)
	ErrPremiumTierRequired = fmt.Errorf("%w: premium tier required", ErrEntitlementDenied)
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrEmptyContent      = fmt.Errorf("%w: empty content", ErrValidation)
	ErrNothingToSave     = fmt.Errorf("%w: nothing to save", ErrValidation)
	ErrNothingToDeepen   = fmt.Errorf("%w: nothing to deepen", ErrValidation)
	ErrCardCountMismatch = fmt.Errorf("%w: card count does not match layout", ErrValidation)
	ErrUnsupportedSpread = fmt.Errorf("%w: unsupported spread", ErrValidation)
	ErrInvalidTier       = fmt.Errorf("%w: invalid subscription tier", ErrValidation)
	ErrInvalidQuota      = fmt.Errorf("%w: unknown quota", ErrValidation)
)
