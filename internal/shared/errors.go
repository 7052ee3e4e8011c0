package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Catalog and service errors
	ErrCatalogUnavailable = fmt.Errorf("catalog unavailable")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Track-list store errors
	ErrStore = fmt.Errorf("track-list store failure")

	// Download id errors
	ErrMalformedIdentifier = fmt.Errorf("malformed download id")
	ErrDecompression       = fmt.Errorf("download id decompression failed")
	ErrPayloadParse        = fmt.Errorf("download id payload invalid")

	// Media fetch errors
	ErrFetch = fmt.Errorf("fetch failed")

	// Input validation errors
	ErrInvalidLink  = fmt.Errorf("invalid link")
	ErrInvalidInput = fmt.Errorf("invalid input")
)

// IsClientError reports whether err was caused by bad caller input
// (a corrupt download id, an unparseable link or a malformed request).
func IsClientError(err error) bool {
	for _, target := range []error{ErrMalformedIdentifier, ErrDecompression, ErrPayloadParse, ErrInvalidLink, ErrInvalidInput} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
