// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, while the
// human-readable "error" text may change. Every error response carries both an
// HTTP status and one of these codes.
//
// Mapping of pipeline failures:
//
//	invalid input (missing/invalid URL, bad JSON) → 400 bad_request
//	private / loopback target                     → 400 blocked_target
//	target site unreachable or non-2xx            → 400 fetch_failed
//	completion or payment provider failure        → 500 upstream_failed
//	store failure on events/dashboard             → 500 internal_error
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "blocked_target",
//	  "error": "Blocked for security reasons"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeBlockedTarget  = "blocked_target"
	ErrCodeFetchFailed    = "fetch_failed"
	ErrCodeUpstreamFailed = "upstream_failed"
)
