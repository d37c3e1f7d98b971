package testutil

import (
	"net/http"
	"time"

	"talentgate/pkg/requestcontext"
)

// WithActor injects an acting identity into the request context, simulating
// what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithFixedTime pins the request-scoped clock so assertions on timestamps are
// deterministic.
func WithFixedTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID injects a request ID into the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithClientMetadata injects client IP and platform, as the metadata
// middleware would.
func WithClientMetadata(req *http.Request, clientIP, platform string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, platform))
}
