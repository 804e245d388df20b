// Package services holds the business logic behind the roast API: the roast
// pipeline, payment orders, analytics events, dashboard counts and curated
// examples. This file centralizes the service-level error values.
//
// Validation, fetch and completion failures are not wrapped here. They keep
// their own types (urlguard sentinels, *fetch.Error, *completion.UpstreamError,
// *payment.Error) so handlers can map them to HTTP results with errors.Is/As.
package services

import "errors"

var (
	// ErrEventNotRecorded is returned when an analytics event could not be
	// written to the store.
	ErrEventNotRecorded = errors.New("DB insert failed")

	// ErrStatsUnavailable is returned when the dashboard counts could not be
	// loaded.
	ErrStatsUnavailable = errors.New("failed to load stats")

	// ErrExamplesUnavailable is returned when the embedded examples document
	// cannot be decoded.
	ErrExamplesUnavailable = errors.New("examples unavailable")
)
