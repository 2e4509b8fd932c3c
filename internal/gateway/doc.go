// Package gateway implements the request pipeline of the Trakt edge proxy:
// per-client rate limiting, shared-secret authentication, upstream path
// allowlisting, credential-injecting request building, and response
// normalization. The pipeline order is fixed: rate limiter first, then
// authenticator, then allowlist, then the upstream call.
package gateway
