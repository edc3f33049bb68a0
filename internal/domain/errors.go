package domain

import "errors"

var (
	ErrDirectoryUnavailable = errors.New("indexer directory unavailable")
	ErrSourceQueryFailed    = errors.New("indexer query failed")
	ErrMalformedResponse    = errors.New("malformed indexer response")
	ErrLocatorResolution    = errors.New("locator resolution failed")
	ErrMetadataMiss         = errors.New("metadata not found")
	ErrMissingID            = errors.New("no id specified")
)
