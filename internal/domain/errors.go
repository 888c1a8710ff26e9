package domain

import "errors"

var (
	// ErrDocumentNotFound is returned by document stores when a document has never been written.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrCatalogEmpty indicates the quiz bank has no questions to draw from.
	ErrCatalogEmpty = errors.New("quiz catalog is empty")
	// ErrQuestionNotFound indicates a submitted question ID is not in the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoPaymentMatch indicates no registered user claimed the payer email.
	ErrNoPaymentMatch = errors.New("no user registered for payment email")
	// ErrStoreUnavailable marks a document that could not be read for a reason other than absence.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrUnauthorized is returned when a non-administrator attempts an admin action.
	ErrUnauthorized = errors.New("sender is not the administrator")
)
