package policyradar

import "github.com/policyradar/policyradar/internal/domain"

// Sentinel errors re-exported from the domain layer. APIError unwraps to
// these, so errors.Is works on client results.
var (
	ErrStoreUnavailable = domain.ErrStoreUnavailable
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrInvalidParameter = domain.ErrInvalidParameter
	ErrUnknownSource    = domain.ErrUnknownSource
	ErrRAGProviderError = domain.ErrRAGProviderError
)
