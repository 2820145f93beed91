package domain

import "errors"

var (
	// ErrStoreUnavailable signals that no corpus snapshot has been installed yet.
	// Distinct from an empty-but-initialized store, which is a valid state.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidParameter signals a malformed request parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidDocument signals a document failing corpus invariants.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrUnknownSource signals an ingestion source that is not registered.
	ErrUnknownSource = errors.New("unknown ingestion source")
	// ErrRAGProviderError signals a failure of the answer-generation provider.
	ErrRAGProviderError = errors.New("rag provider error")
)
