package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the token in the Authorization header.
const BearerScheme = "Bearer"

// RequestIDHeaderName is set on every response and may be supplied by callers.
const RequestIDHeaderName = "X-Request-ID"
